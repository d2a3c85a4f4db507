// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package errutil_test

import (
	"testing"

	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/pkg/errutil"
)

func TestAssertErrorCode(t *testing.T) {
	err := oops.Code("STORE_UNAVAILABLE").Errorf("down")
	errutil.AssertErrorCode(t, err, "STORE_UNAVAILABLE")
}

func TestAssertErrorContext(t *testing.T) {
	err := oops.Code("STORE_UNAVAILABLE").With("operation", "ping").Errorf("down")
	errutil.AssertErrorContext(t, err, "operation", "ping")
}
