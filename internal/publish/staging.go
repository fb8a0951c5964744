package publish

import (
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// beginStaging creates an empty sibling staging directory <dest>_stage.
// Leftovers from an interrupted build are removed first.
func beginStaging(dest string, log *slog.Logger) (string, error) {
	stage := dest + "_stage"
	if err := os.RemoveAll(stage); err != nil {
		return "", fmt.Errorf("remove stale staging directory: %w", err)
	}
	if err := os.MkdirAll(stage, 0o750); err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}
	log.Debug("Initialized staging directory", slog.String("staging", stage), slog.String("final", dest))
	return stage, nil
}

// finalizeStaging promotes stage to dest:
//  1. Move an existing dest to dest.prev (replacing an older backup).
//  2. Rename stage to dest.
//  3. Remove the backup.
//
// If step 2 fails the backup is moved back.
func finalizeStaging(stage, dest string, log *slog.Logger) error {
	if _, err := os.Stat(stage); err != nil {
		return fmt.Errorf("staging directory missing: %w", err)
	}

	prev := dest + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		return fmt.Errorf("remove previous backup: %w", err)
	}

	hadOutput := false
	if _, err := os.Stat(dest); err == nil {
		if err := os.Rename(dest, prev); err != nil {
			return fmt.Errorf("backup existing output: %w", err)
		}
		hadOutput = true
	}

	if err := os.Rename(stage, dest); err != nil {
		if hadOutput {
			if rerr := os.Rename(prev, dest); rerr != nil {
				log.Error("Failed to restore previous output", logfields.Path(dest), logfields.Error(rerr))
			}
		}
		return fmt.Errorf("promote staging: %w", err)
	}

	if hadOutput {
		if err := os.RemoveAll(prev); err != nil {
			log.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
		}
	}
	log.Info("Promoted staging directory", logfields.Path(dest))
	return nil
}

// abortStaging removes the staging directory after a failed build.
func abortStaging(stage string, log *slog.Logger) {
	if stage == "" {
		return
	}
	if err := os.RemoveAll(stage); err != nil {
		log.Warn("Failed to remove staging directory after abort", slog.String("staging", stage), logfields.Error(err))
		return
	}
	log.Debug("Removed staging directory after abort", slog.String("staging", stage))
}
