//go:build tools

// Package tools pins code generators used by `make proto`.
package tools

import (
	_ "google.golang.org/grpc/cmd/protoc-gen-go-grpc"
)
