package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check if the thepom server is running",
		Long:  "Query the health and readiness endpoints of a running server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	port := viper.GetInt("server.port")
	if port == 0 {
		port = 3000
	}
	host := viper.GetString("server.host")
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	base := fmt.Sprintf("http://%s:%d", host, port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(base + "/health")
	if err != nil {
		fmt.Printf("Server is not responding at %s\n", base)
		return nil
	}
	resp.Body.Close()
	fmt.Printf("Server is running at %s\n", base)
	fmt.Printf("  Health:    %s/health (%d)\n", base, resp.StatusCode)

	resp, err = client.Get(base + "/readyz")
	if err != nil {
		fmt.Printf("  Readiness: unavailable (%v)\n", err)
		return nil
	}
	defer resp.Body.Close()

	var ready struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&ready)
	fmt.Printf("  Readiness: %s (%d)\n", ready.Status, resp.StatusCode)
	fmt.Printf("  Database:  %s\n", ready.Checks["database"])
	fmt.Printf("  Sessions:  %s\n", ready.Checks["sessions"])
	return nil
}
