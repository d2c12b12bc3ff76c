// Package worklist loads the YAML file describing a batch run.
//
// A worklist has an optional defaults block and a list of items:
//
//	defaults:
//	  wait: network_idle
//	  timeout_ms: 30000
//	  output_dir: shots
//	items:
//	  - label: about-desktop
//	    target: ../site/about.html
//	    operation: screenshot
//	    viewport: {width: 1440, height: 900}
//	    output: about-desktop.png
//
// Targets without a scheme are local files, resolved against the worklist's
// directory and turned into file:// URLs. Relative output paths resolve
// against output_dir, itself relative to the worklist's directory.
package worklist

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/use-agent/pagecheck/models"
)

// Defaults are applied to every item that leaves the field unset.
type Defaults struct {
	Viewport      *models.Viewport     `yaml:"viewport,omitempty"`
	WaitCondition models.WaitCondition `yaml:"wait,omitempty" validate:"omitempty,oneof=network_idle dom_content_loaded"`
	TimeoutMs     int                  `yaml:"timeout_ms,omitempty" validate:"gte=0"`
	SettleDelayMs int                  `yaml:"settle_delay_ms,omitempty" validate:"gte=0"`
	Headers       map[string]string    `yaml:"headers,omitempty"`
	OutputDir     string               `yaml:"output_dir,omitempty"`
}

// File is the on-disk worklist document.
type File struct {
	Defaults Defaults          `yaml:"defaults"`
	Items    []models.WorkItem `yaml:"items" validate:"required,min=1,dive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Load reads and resolves the worklist at path.
func Load(path string) ([]models.WorkItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewRunError(models.ErrCodeInvalidInput, "read worklist", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, models.NewRunError(models.ErrCodeInvalidInput, "resolve worklist path", err)
	}
	return Parse(data, filepath.Dir(abs))
}

// Parse decodes a worklist document and resolves it against baseDir.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func Parse(data []byte, baseDir string) ([]models.WorkItem, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, models.NewRunError(models.ErrCodeInvalidInput, "parse worklist", err)
	}

	if err := validate.Struct(f.Defaults); err != nil {
		return nil, invalid("defaults", err)
	}

	outputDir := f.Defaults.OutputDir
	if outputDir == "" {
		outputDir = baseDir
	} else if !filepath.IsAbs(outputDir) {
		outputDir = filepath.Join(baseDir, outputDir)
	}

	seen := make(map[string]int, len(f.Items))
	for i := range f.Items {
		item := &f.Items[i]
		applyDefaults(item, f.Defaults)

		if prev, ok := seen[item.Label]; ok && item.Label != "" {
			return nil, models.NewRunError(models.ErrCodeInvalidInput,
				fmt.Sprintf("items[%d]: label %q already used by items[%d]", i, item.Label, prev), nil)
		}
		seen[item.Label] = i

		if item.Target != "" {
			target, err := resolveTarget(item.Target, baseDir)
			if err != nil {
				return nil, models.NewRunError(models.ErrCodeInvalidInput, fmt.Sprintf("items[%d]: target", i), err)
			}
			item.Target = target
		}
		if item.OutputPath != "" && !filepath.IsAbs(item.OutputPath) {
			item.OutputPath = filepath.Join(outputDir, item.OutputPath)
		}
		item.Defaults()
	}

	if err := validate.Struct(f); err != nil {
		return nil, invalid("worklist", err)
	}
	return f.Items, nil
}

func applyDefaults(item *models.WorkItem, d Defaults) {
	if item.Viewport == nil && d.Viewport != nil {
		vp := *d.Viewport
		item.Viewport = &vp
	}
	if item.WaitCondition == "" {
		item.WaitCondition = d.WaitCondition
	}
	if item.TimeoutMs == 0 {
		item.TimeoutMs = d.TimeoutMs
	}
	if item.SettleDelayMs == 0 {
		item.SettleDelayMs = d.SettleDelayMs
	}
	if len(d.Headers) > 0 {
		merged := make(map[string]string, len(d.Headers)+len(item.Headers))
		for k, v := range d.Headers {
			merged[k] = v
		}
		for k, v := range item.Headers {
			merged[k] = v
		}
		item.Headers = merged
	}
}

// resolveTarget accepts http(s) and file URLs as they are and turns any
// other value into a file:// URL of a local path.
func resolveTarget(target, baseDir string) (string, error) {
	if u, err := url.Parse(target); err == nil && len(u.Scheme) > 1 {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			if u.Host == "" {
				return "", fmt.Errorf("%q has no host", target)
			}
			return target, nil
		case "file":
			return target, nil
		default:
			return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
		}
	}

	path := target
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String(), nil
}

func invalid(scope string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.NewRunError(models.ErrCodeInvalidInput, "invalid "+scope, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "File.")
		field = strings.TrimPrefix(field, "Defaults.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
		}
	}
	return models.NewRunError(models.ErrCodeInvalidInput, "invalid "+scope+": "+strings.Join(msgs, "; "), nil)
}
