/*
Copyright © 2025 the DRP authors.
This file is part of DRP.

DRP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

DRP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with DRP.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command drp is a digital rock physics toolkit.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rockphysics/drp/drputil"
)

func main() {
	// Count the number of commands (as opposed to flags).
	commands := 0
	for _, arg := range os.Args {
		if !strings.HasPrefix(arg, "-") {
			commands++
		}
	}
	if commands == 1 { // The user only typed 'drp', so open the GUI.
		drputil.StartWebServer()
	} else {
		if err := drputil.Root.Execute(); err != nil {
			fmt.Println(err)
			os.Exit(-1)
		}
	}
}
