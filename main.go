// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/skillkit/skillkit/cmd/skillkit"

func main() {
	cmd.Execute()
}
