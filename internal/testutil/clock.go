// SPDX-License-Identifier: MPL-2.0

package testutil

import "time"

// ReferenceTime is the fixed instant tests stamp reports with.
var ReferenceTime = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Now returns ReferenceTime. It fits engine.Options.Now.
func Now() time.Time {
	return ReferenceTime
}
