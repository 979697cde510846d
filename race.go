// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package weave

// RaceEnabled is true when the race detector is active.
// Used by tests to skip concurrent tests that synchronize through atomic
// memory orderings the detector cannot track, or that rely on the
// stamp-validated racy copy in SPMCCell.
const RaceEnabled = true
