// Code generated by protoc-gen-go. DO NOT EDIT.
// versions:
// 	protoc-gen-go v1.36.10
// 	protoc        (unknown)
// source: entitlements/v1/entitlements.proto

package entitlementsv1

import (
	protoreflect "google.golang.org/protobuf/reflect/protoreflect"
	protoimpl "google.golang.org/protobuf/runtime/protoimpl"
	reflect "reflect"
	sync "sync"
	unsafe "unsafe"
)

const (
	// Verify that this generated code is sufficiently up-to-date.
	_ = protoimpl.EnforceVersion(20 - protoimpl.MinVersion)
	// Verify that runtime/protoimpl is sufficiently up-to-date.
	_ = protoimpl.EnforceVersion(protoimpl.MaxVersion - 20)
)

type EntitlementsRequest struct {
	state         protoimpl.MessageState `protogen:"open.v1"`
	AccountId     string                 `protobuf:"bytes,1,opt,name=account_id,json=accountId,proto3" json:"account_id,omitempty"`
	unknownFields protoimpl.UnknownFields
	sizeCache     protoimpl.SizeCache
}

func (x *EntitlementsRequest) Reset() {
	*x = EntitlementsRequest{}
	mi := &file_entitlements_v1_entitlements_proto_msgTypes[0]
	ms := protoimpl.X.MessageStateOf(protoimpl.Pointer(x))
	ms.StoreMessageInfo(mi)
}

func (x *EntitlementsRequest) String() string {
	return protoimpl.X.MessageStringOf(x)
}

func (*EntitlementsRequest) ProtoMessage() {}

func (x *EntitlementsRequest) ProtoReflect() protoreflect.Message {
	mi := &file_entitlements_v1_entitlements_proto_msgTypes[0]
	if x != nil {
		ms := protoimpl.X.MessageStateOf(protoimpl.Pointer(x))
		if ms.LoadMessageInfo() == nil {
			ms.StoreMessageInfo(mi)
		}
		return ms
	}
	return mi.MessageOf(x)
}

// Deprecated: Use EntitlementsRequest.ProtoReflect.Descriptor instead.
func (*EntitlementsRequest) Descriptor() ([]byte, []int) {
	return file_entitlements_v1_entitlements_proto_rawDescGZIP(), []int{0}
}

func (x *EntitlementsRequest) GetAccountId() string {
	if x != nil {
		return x.AccountId
	}
	return ""
}

type EntitlementsResponse struct {
	state            protoimpl.MessageState `protogen:"open.v1"`
	Tier             string                 `protobuf:"bytes,1,opt,name=tier,proto3" json:"tier,omitempty"`
	MonthlyAiActions uint32                 `protobuf:"varint,2,opt,name=monthly_ai_actions,json=monthlyAiActions,proto3" json:"monthly_ai_actions,omitempty"`
	Unlimited        bool                   `protobuf:"varint,3,opt,name=unlimited,proto3" json:"unlimited,omitempty"`
	unknownFields    protoimpl.UnknownFields
	sizeCache        protoimpl.SizeCache
}

func (x *EntitlementsResponse) Reset() {
	*x = EntitlementsResponse{}
	mi := &file_entitlements_v1_entitlements_proto_msgTypes[1]
	ms := protoimpl.X.MessageStateOf(protoimpl.Pointer(x))
	ms.StoreMessageInfo(mi)
}

func (x *EntitlementsResponse) String() string {
	return protoimpl.X.MessageStringOf(x)
}

func (*EntitlementsResponse) ProtoMessage() {}

func (x *EntitlementsResponse) ProtoReflect() protoreflect.Message {
	mi := &file_entitlements_v1_entitlements_proto_msgTypes[1]
	if x != nil {
		ms := protoimpl.X.MessageStateOf(protoimpl.Pointer(x))
		if ms.LoadMessageInfo() == nil {
			ms.StoreMessageInfo(mi)
		}
		return ms
	}
	return mi.MessageOf(x)
}

// Deprecated: Use EntitlementsResponse.ProtoReflect.Descriptor instead.
func (*EntitlementsResponse) Descriptor() ([]byte, []int) {
	return file_entitlements_v1_entitlements_proto_rawDescGZIP(), []int{1}
}

func (x *EntitlementsResponse) GetTier() string {
	if x != nil {
		return x.Tier
	}
	return ""
}

func (x *EntitlementsResponse) GetMonthlyAiActions() uint32 {
	if x != nil {
		return x.MonthlyAiActions
	}
	return 0
}

func (x *EntitlementsResponse) GetUnlimited() bool {
	if x != nil {
		return x.Unlimited
	}
	return false
}

var File_entitlements_v1_entitlements_proto protoreflect.FileDescriptor

const file_entitlements_v1_entitlements_proto_rawDesc = "" +
	"\n" +
	"\"entitlements/v1/entitlements.proto\x12\x0fentitlements.v1\"4\n" +
	"\x13EntitlementsRequest\x12\x1d\n" +
	"\n" +
	"account_id\x18\x01 \x01(\tR\taccountId\"v\n" +
	"\x14EntitlementsResponse\x12\x12\n" +
	"\x04tier\x18\x01 \x01(\tR\x04tier\x12,\n" +
	"\x12monthly_ai_actions\x18\x02 \x01(\rR\x10monthlyAiActions\x12\x1c\n" +
	"\tunlimited\x18\x03 \x01(\bR\tunlimited2u\n" +
	"\x13EntitlementsService\x12^\n" +
	"\x0fGetEntitlements\x12$.entitlements.v1.EntitlementsRequest\x1a%.entitlements.v1.EntitlementsResponseBFZDgithub.com/ojalink/ojalink/protos/gen/entitlements/v1;entitlementsv1b\x06proto3"

var (
	file_entitlements_v1_entitlements_proto_rawDescOnce sync.Once
	file_entitlements_v1_entitlements_proto_rawDescData []byte
)

func file_entitlements_v1_entitlements_proto_rawDescGZIP() []byte {
	file_entitlements_v1_entitlements_proto_rawDescOnce.Do(func() {
		file_entitlements_v1_entitlements_proto_rawDescData = protoimpl.X.CompressGZIP(unsafe.Slice(unsafe.StringData(file_entitlements_v1_entitlements_proto_rawDesc), len(file_entitlements_v1_entitlements_proto_rawDesc)))
	})
	return file_entitlements_v1_entitlements_proto_rawDescData
}

var file_entitlements_v1_entitlements_proto_msgTypes = make([]protoimpl.MessageInfo, 2)
var file_entitlements_v1_entitlements_proto_goTypes = []any{
	(*EntitlementsRequest)(nil),  // 0: entitlements.v1.EntitlementsRequest
	(*EntitlementsResponse)(nil), // 1: entitlements.v1.EntitlementsResponse
}
var file_entitlements_v1_entitlements_proto_depIdxs = []int32{
	0, // 0: entitlements.v1.EntitlementsService.GetEntitlements:input_type -> entitlements.v1.EntitlementsRequest
	1, // 1: entitlements.v1.EntitlementsService.GetEntitlements:output_type -> entitlements.v1.EntitlementsResponse
	1, // [1:2] is the sub-list for method output_type
	0, // [0:1] is the sub-list for method input_type
	0, // [0:0] is the sub-list for extension type_name
	0, // [0:0] is the sub-list for extension extendee
	0, // [0:0] is the sub-list for field type_name
}

func init() { file_entitlements_v1_entitlements_proto_init() }
func file_entitlements_v1_entitlements_proto_init() {
	if File_entitlements_v1_entitlements_proto != nil {
		return
	}
	type x struct{}
	out := protoimpl.TypeBuilder{
		File: protoimpl.DescBuilder{
			GoPackagePath: reflect.TypeOf(x{}).PkgPath(),
			RawDescriptor: unsafe.Slice(unsafe.StringData(file_entitlements_v1_entitlements_proto_rawDesc), len(file_entitlements_v1_entitlements_proto_rawDesc)),
			NumEnums:      0,
			NumMessages:   2,
			NumExtensions: 0,
			NumServices:   1,
		},
		GoTypes:           file_entitlements_v1_entitlements_proto_goTypes,
		DependencyIndexes: file_entitlements_v1_entitlements_proto_depIdxs,
		MessageInfos:      file_entitlements_v1_entitlements_proto_msgTypes,
	}.Build()
	File_entitlements_v1_entitlements_proto = out.File
	file_entitlements_v1_entitlements_proto_goTypes = nil
	file_entitlements_v1_entitlements_proto_depIdxs = nil
}
