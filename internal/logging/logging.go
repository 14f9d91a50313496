// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging writes prefixed console messages for pdf-decrypt.
//
// Info and debug output is gated on the Verbose and Debug fields. Warnings
// and errors are always written to Err.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Logger writes console messages at the verbosity chosen on the command line.
type Logger struct {
	Verbose bool
	Debug   bool

	// Out receives per-file results and info lines. Defaults to os.Stdout.
	Out io.Writer
	// Err receives warnings and errors. Defaults to os.Stderr.
	Err io.Writer
}

// New returns a Logger writing to the process stdout and stderr.
func New(verbose, debug bool) Logger {
	return Logger{Verbose: verbose, Debug: debug, Out: os.Stdout, Err: os.Stderr}
}

func (l Logger) out() io.Writer {
	if l.Out == nil {
		return os.Stdout
	}
	return l.Out
}

func (l Logger) err() io.Writer {
	if l.Err == nil {
		return os.Stderr
	}
	return l.Err
}

// Printf writes an unprefixed line to Out.
func (l Logger) Printf(msg string, args ...any) {
	fmt.Fprintf(l.out(), msg+"\n", args...)
}

// Infof writes an [info] line to Out when Verbose or Debug is set.
func (l Logger) Infof(msg string, args ...any) {
	if l.Verbose || l.Debug {
		fmt.Fprintf(l.out(), color.GreenString("[info] ")+msg+"\n", args...)
	}
}

// Debugf writes a [debug] line to Out when Debug is set.
func (l Logger) Debugf(msg string, args ...any) {
	if l.Debug {
		fmt.Fprintf(l.out(), color.CyanString("[debug] ")+msg+"\n", args...)
	}
}

// Warnf always writes a [warn] line to Err.
func (l Logger) Warnf(msg string, args ...any) {
	fmt.Fprintf(l.err(), color.YellowString("[warn] ")+msg+"\n", args...)
}

// Errorf always writes an [error] line to Err.
func (l Logger) Errorf(msg string, args ...any) {
	fmt.Fprintf(l.err(), color.RedString("[error] ")+msg+"\n", args...)
}
