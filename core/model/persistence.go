package model

import (
	"bytes"
	"encoding/gob"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/robout/pkg/errors"
)

// Format is the on-disk encoding of FittedParams.
type Format int

const (
	// FormatJSON is indented JSON (.json).
	FormatJSON Format = iota
	// FormatYAML is YAML (.yaml, .yml).
	FormatYAML
	// FormatGob is encoding/gob (.gob).
	FormatGob
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatGob:
		return "gob"
	default:
		return "unknown"
	}
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".gob":
		return FormatGob, nil
	default:
		return 0, errors.Wrapf(errors.ErrUnsupportedFormat, "state file %s (use .json, .yaml or .gob)", path)
	}
}

// EncodeParams はFittedParamsを指定形式でWriterに書き出す
func EncodeParams(w io.Writer, p *FittedParams, f Format) error {
	if err := p.Validate(); err != nil {
		return errors.NewModelError("model.EncodeParams", "invalid params", err)
	}

	switch f {
	case FormatJSON:
		data, err := p.ToJSON()
		if err != nil {
			return errors.Wrap(err, "failed to encode params as json")
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return errors.Wrap(err, "failed to write params")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return errors.Wrap(err, "failed to encode params as yaml")
		}
		return errors.Wrap(enc.Close(), "failed to flush yaml encoder")
	case FormatGob:
		return errors.Wrap(gob.NewEncoder(w).Encode(p), "failed to encode params as gob")
	default:
		return errors.Wrapf(errors.ErrUnsupportedFormat, "format %d", int(f))
	}
}

// DecodeParams はReaderからFittedParamsを読み込み、検証する
func DecodeParams(r io.Reader, f Format) (*FittedParams, error) {
	p := &FittedParams{}

	switch f {
	case FormatJSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read params")
		}
		if err := p.FromJSON(data); err != nil {
			return nil, errors.Wrap(err, "failed to decode json params")
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(p); err != nil {
			return nil, errors.Wrap(err, "failed to decode yaml params")
		}
	case FormatGob:
		if err := gob.NewDecoder(r).Decode(p); err != nil {
			return nil, errors.Wrap(err, "failed to decode gob params")
		}
	default:
		return nil, errors.Wrapf(errors.ErrUnsupportedFormat, "format %d", int(f))
	}

	if err := p.Validate(); err != nil {
		return nil, errors.NewModelError("model.DecodeParams", "invalid params", err)
	}
	return p, nil
}

// SaveParams はFittedParamsをファイルに保存する。形式は拡張子で決まる。
//
// 使用例:
//
//	params, _ := scaler.ExportParams()
//	err := model.SaveParams(params, "scaler.yaml")
func SaveParams(p *FittedParams, path string) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := EncodeParams(&buf, p, f); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// LoadParams はファイルからFittedParamsを読み込む
func LoadParams(path string) (*FittedParams, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer file.Close()

	return DecodeParams(file, f)
}
