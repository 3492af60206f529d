package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumen-display/lumen/internal/daemon"
	"github.com/lumen-display/lumen/internal/domain"
	"github.com/lumen-display/lumen/internal/infra/modes"
	"github.com/lumen-display/lumen/internal/infra/policy"
	"github.com/lumen-display/lumen/internal/infra/refresh"
)

func init() {
	rootCmd.AddCommand(simulateCmd)
}

var simulateCmd = &cobra.Command{
	Use:   "simulate <frame.json>",
	Short: "Run one refresh rate selection from a frame description file",
	Long: `Run a one-shot selection against the configured catalog and policy,
without a running daemon. The frame file describes the visible layers
and global signals:

  {
    "layers": [
      {"name": "video", "vote": "explicit_exact_or_multiple",
       "desired_fps": 30, "weight": 1.0, "owner_uid": 10086}
    ],
    "signals": {"touch": false, "idle": false}
  }`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

type frameFile struct {
	Layers []struct {
		Name         string  `json:"name"`
		OwnerUID     int     `json:"owner_uid"`
		DesiredFps   float64 `json:"desired_fps"`
		Vote         string  `json:"vote"`
		Seamlessness string  `json:"seamlessness"`
		Weight       float64 `json:"weight"`
		Focused      bool    `json:"focused"`
	} `json:"layers"`
	Signals domain.GlobalSignals `json:"signals"`
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var frame frameFile
	if err := json.Unmarshal(raw, &frame); err != nil {
		return fmt.Errorf("parse frame file: %w", err)
	}

	catalog, err := modes.NewCatalog(cfg.Display.DomainModes())
	if err != nil {
		return err
	}
	policies, err := policy.NewStore(catalog, cfg.Policy.DomainPolicy())
	if err != nil {
		return err
	}
	engine, err := refresh.New(catalog, policies, domain.ModeID(cfg.Display.CurrentMode))
	if err != nil {
		return err
	}

	reqs := make([]domain.LayerRequirement, 0, len(frame.Layers))
	for _, l := range frame.Layers {
		vote, err := domain.ParseLayerVote(l.Vote)
		if err != nil {
			return err
		}
		seam, err := domain.ParseSeamlessness(l.Seamlessness)
		if err != nil {
			return err
		}
		weight := l.Weight
		if weight == 0 {
			weight = 1
		}
		reqs = append(reqs, domain.LayerRequirement{
			Name:         l.Name,
			OwnerUID:     l.OwnerUID,
			Desired:      domain.Fps(l.DesiredFps),
			Vote:         vote,
			Seamlessness: seam,
			Weight:       weight,
			Focused:      l.Focused,
		})
	}

	sel := engine.BestMode(reqs, frame.Signals)
	overrides := engine.FrameRateOverrides(reqs, sel.Mode.Fps)

	fmt.Printf("Chosen mode: %d (%s, group %d)\n", sel.Mode.ID, sel.Mode.Fps, sel.Mode.Group)
	switch {
	case sel.Signals.Touch:
		fmt.Println("Decided by:  touch boost")
	case sel.Signals.Idle:
		fmt.Println("Decided by:  idle")
	default:
		fmt.Println("Decided by:  layer scoring")
	}
	for _, o := range overrides {
		fmt.Printf("Override:    uid %d -> %s\n", o.UID, o.Fps)
	}
	return nil
}
