/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package validation

import "fmt"

// RuleValidator checks a single constraint on one configuration setting.
type RuleValidator struct {
	setting string
	holds   bool
	reason  string
}

var _ Validator = (*RuleValidator)(nil)

// NewRuleValidator creates a RuleValidator. When holds is false Validate
// reports the setting followed by reason, e.g. "mailbox.capacity must not
// be negative".
func NewRuleValidator(setting string, holds bool, reason string) *RuleValidator {
	return &RuleValidator{setting: setting, holds: holds, reason: reason}
}

// Validate implements Validator.
func (r *RuleValidator) Validate() error {
	if r.holds {
		return nil
	}
	return fmt.Errorf("%s %s", r.setting, r.reason)
}
