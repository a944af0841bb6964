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

package log

import "fmt"

// Logger is the leveled, structured logger shared by the directory, the
// mailboxes and the transports of a node. It never terminates the process:
// a failure the runtime deems fatal, such as a stuck mailbox, is written at
// ErrorLevel with a severity field and the node keeps serving other actors.
type Logger interface {
	Debug(...any)
	Debugf(string, ...any)
	Info(...any)
	Infof(string, ...any)
	Warn(...any)
	Warnf(string, ...any)
	Error(...any)
	Errorf(string, ...any)

	// With returns a Logger adding the key-value pairs to every entry.
	With(keyValues ...any) Logger
	// Enabled reports whether entries at level are written.
	Enabled(level Level) bool
	// LogLevel returns the lowest level written.
	LogLevel() Level
	// Flush drains buffered entries. The node calls it last on shutdown.
	Flush() error
}

// ForTurn scopes logger to one turn of an actor: every entry carries the
// actor and the call chain the turn belongs to.
func ForTurn(logger Logger, actor fmt.Stringer, chainID int64) Logger {
	return logger.With("actor", actor.String(), "chain", chainID)
}
