package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	fatx "github.com/aligator/gofatx"
)

func bindFlag(flag *pflag.Flag, key string) {
	if err := settings.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

// progress prints a percentage to stderr whenever it grew by at least 10%.
func progress(label string) fatx.ProgressFunc {
	last := int64(-10)
	return func(done, total int64) {
		if total <= 0 {
			return
		}

		percent := done * 100 / total
		if percent-last >= 10 || (done == total && percent != last) {
			fmt.Fprintf(os.Stderr, "%s: %3d%%\n", label, percent)
			last = percent
		}
	}
}

func sizeString(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
