// Package robout provides a reversible, outlier-preserving scaler for tabular
// data in Go.
//
// RobustOutlierScaler centres every numeric column on its median, sizes it by a
// quantile range and squashes it through a sigmoid. Outliers are compressed
// towards the ends of the output range instead of being clipped, so their
// order survives, and every transform can be inverted back to the original
// values. Integer columns come back as integers.
//
// # Installation
//
//	go get github.com/YuminosukeSato/robout
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/robout/core/table"
//	    "github.com/YuminosukeSato/robout/preprocessing"
//	)
//
//	func main() {
//	    t := table.MustNew(
//	        table.NewFloatColumn("price", []float64{10, 20, 30, 40, 1000}),
//	    )
//
//	    s, err := preprocessing.NewRobustOutlierScaler(
//	        preprocessing.WithQuantileRange(0.1, 0.9),
//	        preprocessing.WithNormalization(preprocessing.UnitInterval),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    scaled, err := s.FitTransformTable(t)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    restored, err := s.InverseTransformTable(scaled)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(scaled.ColumnAt(0).Values(), restored.ColumnAt(0).Values())
//	}
//
// # Packages
//
//   - preprocessing: RobustOutlierScaler, StandardScaler and MinMaxScaler
//   - core/table: column-typed tables (float, int and string columns)
//   - core/stats: NaN-aware quantiles and medians
//   - core/model: fitted state management and persistence (JSON, YAML, gob)
//   - core/parallel: column fan-out used for wide tables
//   - metrics: regression and reconstruction error metrics
//   - pkg/errors: structured errors and warnings
//   - pkg/log: structured logging on zerolog
//
// # Command Line
//
// cmd/robout fits, applies and inspects scalers on CSV and XLSX files:
//
//	robout fit -i data.csv -o scaled.csv --state scaler.json
//	robout inverse -i scaled.csv -o restored.csv --state scaler.json
//	robout describe --state scaler.json
//	robout compare -i data.csv --column price
//
// Configuration is read from a YAML file (--config), ROBOUT_* environment
// variables and flags, in increasing order of precedence.
//
// # License
//
// robout is released under the MIT License.
package robout
