/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package common

import (
	"fmt"
	"strings"
)

// Report widths for CLI output
const (
	DefaultWidth = 80
	WideWidth    = 100
)

func rule(char string, width int) string {
	return strings.Repeat(char, width)
}

func PrintSeparator(char string, width int) {
	fmt.Println(rule(char, width))
}

// PrintHeader prints a title framed by "=" rules, preceded by a blank line
func PrintHeader(title string, width int) {
	fmt.Printf("\n%s\n%s\n%s\n", rule("=", width), title, rule("=", width))
}

// PrintFooter prints a summary line framed by "=" rules
func PrintFooter(message string, width int) {
	fmt.Printf("\n%s\n%s\n%s\n\n", rule("=", width), message, rule("=", width))
}

// PrintBoxSeparator closes the header block of a tree section
func PrintBoxSeparator(width int) {
	fmt.Println("├" + rule("─", width))
}

// BoxPrefix is the tree branch for a list item
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// BoxDetailPrefix continues the tree under a list item
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}
