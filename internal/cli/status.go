package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumen-display/lumen/internal/daemon"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running daemon's health and current mode",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}
	base := fmt.Sprintf("http://%s:%d", cfg.API.Host, cfg.API.Port)

	client := &http.Client{Timeout: 3 * time.Second}

	resp, err := client.Get(base + "/health")
	if err != nil {
		fmt.Println("Daemon: not running")
		return nil
	}
	defer resp.Body.Close()

	var healthBody struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&healthBody); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}
	fmt.Printf("Daemon: %s (%s)\n", healthBody.Status, base)

	modesResp, err := client.Get(base + "/v1/modes")
	if err != nil {
		return err
	}
	defer modesResp.Body.Close()

	var modesBody struct {
		Current struct {
			ID    int32   `json:"id"`
			Fps   float64 `json:"fps"`
			Group int     `json:"group"`
		} `json:"current"`
		MinFps float64 `json:"min_fps"`
		MaxFps float64 `json:"max_fps"`
	}
	if err := json.NewDecoder(modesResp.Body).Decode(&modesBody); err != nil {
		return fmt.Errorf("decode modes response: %w", err)
	}

	fmt.Printf("Current mode: %d (%.2f Hz, group %d)\n",
		modesBody.Current.ID, modesBody.Current.Fps, modesBody.Current.Group)
	fmt.Printf("Panel range:  %.2f–%.2f Hz\n", modesBody.MinFps, modesBody.MaxFps)
	return nil
}
