//go:build !unix

package main

import (
	"context"

	"github.com/danmuck/geckoload/internal/loader"
)

func stopOnSignal(context.Context, *loader.Loop) {}
