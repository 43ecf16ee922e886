package ensemble

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
	"github.com/sristy17/insider-Threat-Detection/pkg/logger"
)

// Parameter file names inside a model directory. Mirrors the offline
// training pipeline's one-file-per-model layout.
const (
	isolationForestFile = "isolation_forest.json"
	oneClassSVMFile     = "one_class_svm.json"
	autoencoderFile     = "autoencoder.json"
	scalerFile          = "scaler.json"
)

// Load builds an Ensemble from fitted parameter files in dir. A missing
// model file is logged and skipped; loading fails only when no model could
// be built at all.
func Load(ctx context.Context, dir string, opts ...Option) (*Ensemble, error) {
	log := logger.Get().Named("ensemble")

	var models []Model

	var ifp IsolationForestParams
	if ok, err := readParams(filepath.Join(dir, isolationForestFile), &ifp); err != nil {
		return nil, err
	} else if ok {
		m, err := NewIsolationForest(ifp)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	} else {
		log.Warn(ctx, "model parameters not found", logger.String("model", model.ModelIsolationForest))
	}

	var svp OneClassSVMParams
	if ok, err := readParams(filepath.Join(dir, oneClassSVMFile), &svp); err != nil {
		return nil, err
	} else if ok {
		m, err := NewOneClassSVM(svp)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	} else {
		log.Warn(ctx, "model parameters not found", logger.String("model", model.ModelOneClassSVM))
	}

	var aep AutoencoderParams
	if ok, err := readParams(filepath.Join(dir, autoencoderFile), &aep); err != nil {
		return nil, err
	} else if ok {
		m, err := NewAutoencoder(aep)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	} else {
		log.Warn(ctx, "model parameters not found", logger.String("model", model.ModelAutoencoder))
	}

	if len(models) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoModels, dir)
	}

	var scp ScalerParams
	if ok, err := readParams(filepath.Join(dir, scalerFile), &scp); err != nil {
		return nil, err
	} else if ok {
		sc, err := NewScaler(scp)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithScaler(sc))
	}

	log.Info(ctx, "loaded pre-trained models", logger.Int("models", len(models)), logger.String("dir", dir))
	return New(models, opts...), nil
}

// SaveParams writes one fitted parameter set as JSON. Used by the offline
// fitting tool, never by the scoring path.
func SaveParams(dir, name string, params any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name+".json"), data, 0o644)
}

// readParams loads JSON params from path. Returns false when the file does
// not exist.
func readParams(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}
