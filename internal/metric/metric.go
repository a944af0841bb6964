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

// Package metric defines the OpenTelemetry instruments recorded by the runtime.
package metric

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/tochemey/gamecore"

// RuntimeMetric groups the runtime instruments. A nil *RuntimeMetric is
// valid and records nothing.
type RuntimeMetric struct {
	processed     metric.Int64Counter
	duration      metric.Float64Histogram
	timeouts      metric.Int64Counter
	panics        metric.Int64Counter
	flushed       metric.Int64Counter
	saveFailures  metric.Int64Counter
	rpcTimeouts   metric.Int64Counter
	activated     metric.Int64Counter
	recycled      metric.Int64Counter
	listenerFails metric.Int64Counter
}

// Default builds the instruments from the global meter provider. It is a
// no-op until an SDK provider is installed.
func Default() (*RuntimeMetric, error) {
	return New(otel.GetMeterProvider().Meter(instrumentationName))
}

// New creates the instruments on meter.
func New(meter metric.Meter) (*RuntimeMetric, error) {
	m := new(RuntimeMetric)
	var err error

	if m.processed, err = meter.Int64Counter(
		"gamecore.mailbox.processed",
		metric.WithDescription("Total number of work items executed by mailboxes"),
	); err != nil {
		return nil, fmt.Errorf("failed to create processed instrument, %w", err)
	}

	if m.duration, err = meter.Float64Histogram(
		"gamecore.mailbox.duration",
		metric.WithDescription("Execution time of mailbox work items"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create duration instrument, %w", err)
	}

	if m.timeouts, err = meter.Int64Counter(
		"gamecore.mailbox.timeouts",
		metric.WithDescription("Total number of abandoned work items"),
	); err != nil {
		return nil, fmt.Errorf("failed to create timeouts instrument, %w", err)
	}

	if m.panics, err = meter.Int64Counter(
		"gamecore.mailbox.panics",
		metric.WithDescription("Total number of work items that panicked"),
	); err != nil {
		return nil, fmt.Errorf("failed to create panics instrument, %w", err)
	}

	if m.flushed, err = meter.Int64Counter(
		"gamecore.entity.flushed",
		metric.WithDescription("Total number of dirty entities written to storage"),
	); err != nil {
		return nil, fmt.Errorf("failed to create flushed instrument, %w", err)
	}

	if m.saveFailures, err = meter.Int64Counter(
		"gamecore.entity.save_failures",
		metric.WithDescription("Total number of failed entity writes"),
	); err != nil {
		return nil, fmt.Errorf("failed to create saveFailures instrument, %w", err)
	}

	if m.rpcTimeouts, err = meter.Int64Counter(
		"gamecore.rpc.timeouts",
		metric.WithDescription("Total number of rpc calls that timed out"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rpcTimeouts instrument, %w", err)
	}

	if m.activated, err = meter.Int64Counter(
		"gamecore.actor.activated",
		metric.WithDescription("Total number of actors created"),
	); err != nil {
		return nil, fmt.Errorf("failed to create activated instrument, %w", err)
	}

	if m.recycled, err = meter.Int64Counter(
		"gamecore.actor.recycled",
		metric.WithDescription("Total number of actors recycled"),
	); err != nil {
		return nil, fmt.Errorf("failed to create recycled instrument, %w", err)
	}

	if m.listenerFails, err = meter.Int64Counter(
		"gamecore.event.listener_failures",
		metric.WithDescription("Total number of event listeners that returned an error"),
	); err != nil {
		return nil, fmt.Errorf("failed to create listenerFails instrument, %w", err)
	}

	return m, nil
}

func kindAttr(kind uint16) metric.MeasurementOption {
	return metric.WithAttributes(attribute.Int("kind", int(kind)))
}

// WorkItemProcessed records one executed work item.
func (m *RuntimeMetric) WorkItemProcessed(ctx context.Context, kind uint16, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.processed.Add(ctx, 1, kindAttr(kind))
	m.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), kindAttr(kind))
}

// MailboxTimeout records one abandoned work item.
func (m *RuntimeMetric) MailboxTimeout(ctx context.Context, kind uint16) {
	if m == nil {
		return
	}
	m.timeouts.Add(ctx, 1, kindAttr(kind))
}

// MailboxPanic records one work item that panicked.
func (m *RuntimeMetric) MailboxPanic(ctx context.Context, kind uint16) {
	if m == nil {
		return
	}
	m.panics.Add(ctx, 1, kindAttr(kind))
}

// EntityFlushed records one entity written by the save cycle.
func (m *RuntimeMetric) EntityFlushed(ctx context.Context, collection string) {
	if m == nil {
		return
	}
	m.flushed.Add(ctx, 1, metric.WithAttributes(attribute.String("collection", collection)))
}

// SaveFailed records one failed entity write.
func (m *RuntimeMetric) SaveFailed(ctx context.Context, collection string) {
	if m == nil {
		return
	}
	m.saveFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("collection", collection)))
}

// RPCTimeout records one rpc call failed by the sweeper.
func (m *RuntimeMetric) RPCTimeout(ctx context.Context) {
	if m == nil {
		return
	}
	m.rpcTimeouts.Add(ctx, 1)
}

// ActorActivated records one actor creation.
func (m *RuntimeMetric) ActorActivated(ctx context.Context, kind uint16) {
	if m == nil {
		return
	}
	m.activated.Add(ctx, 1, kindAttr(kind))
}

// ActorRecycled records one actor removal.
func (m *RuntimeMetric) ActorRecycled(ctx context.Context, kind uint16) {
	if m == nil {
		return
	}
	m.recycled.Add(ctx, 1, kindAttr(kind))
}

// ListenerFailed records one failing event listener.
func (m *RuntimeMetric) ListenerFailed(ctx context.Context, eventID int32) {
	if m == nil {
		return
	}
	m.listenerFails.Add(ctx, 1, metric.WithAttributes(attribute.Int("event", int(eventID))))
}
