// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Pharos - Signal Tower Controller
//
// A CLI tool for setting, reading and monitoring the LED layers and buzzer
// of a signal tower over serial or WebSocket.

package main

import (
	"os"

	"github.com/Thermoquad/pharos/cmd"
	"github.com/Thermoquad/pharos/pkg/tower"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(int(tower.CodeOf(err)))
	}
}
