// Command usage-sim drives the freemium gate: it consumes metered actions in
// a loop until the limit refuses, printing each decision. Useful for watching
// the quota drain and the upgrade flag flip.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
)

func main() {
	var (
		baseURL = flag.String("base-url", getenv("BASE_URL", "http://localhost:8084"), "billing service base url")
		account = flag.String("account-id", getenv("ACCOUNT_ID", ""), "account id")
		feature = flag.String("feature", getenv("FEATURE", "marketing-copy"), "feature to consume")
		count   = flag.Int("count", 7, "number of consume attempts")
	)
	flag.Parse()

	if strings.TrimSpace(*account) == "" {
		fatal("ACCOUNT_ID is required")
	}

	url := strings.TrimRight(*baseURL, "/") + "/api/v1/billing/consume"
	body, _ := json.Marshal(map[string]string{"feature": *feature})

	for i := 1; i <= *count; i++ {
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			fatal(err.Error())
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Account-Id", *account)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fatal(err.Error())
		}

		var decision struct {
			Allowed         bool `json:"allowed"`
			Metered         bool `json:"metered"`
			Remaining       int  `json:"remaining"`
			UpgradeRequired bool `json:"upgrade_required"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&decision); err != nil {
			resp.Body.Close()
			fatal(fmt.Sprintf("attempt %d: bad response (%d): %v", i, resp.StatusCode, err))
		}
		resp.Body.Close()

		fmt.Printf("attempt=%d status=%d allowed=%t metered=%t remaining=%d upgrade_required=%t\n",
			i, resp.StatusCode, decision.Allowed, decision.Metered, decision.Remaining, decision.UpgradeRequired)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
