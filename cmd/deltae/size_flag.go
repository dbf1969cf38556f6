package main

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
)

// sizeValue is a byte count flag accepting humanized input such as "64KiB".
type sizeValue int

var _ pflag.Value = (*sizeValue)(nil)

func (s *sizeValue) String() string {
	return humanize.IBytes(uint64(*s))
}

func (s *sizeValue) Set(value string) error {
	n, err := humanize.ParseBytes(value)
	if err != nil {
		return err
	}
	if n == 0 || n > math.MaxInt32 {
		return fmt.Errorf("size %q out of range", value)
	}
	*s = sizeValue(n)
	return nil
}

func (s *sizeValue) Type() string { return "size" }
