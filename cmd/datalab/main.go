// Command datalab cleans tabular files and runs analyses on them.
//
//	datalab clean data.csv --rules rules.yaml --out cleaned.csv
//	datalab analyze data.csv --algorithm kmeans --features age,income --n-clusters 3
//	datalab plot data.csv --kind scatter --x age --y income --out scatter.png
//	datalab export data.csv --rules rules.yaml --format xlsx
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
