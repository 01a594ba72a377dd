// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package metrics

import (
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Collector, labels prometheus.Labels) float64 {
	t.Helper()
	vec, ok := c.(*prometheus.CounterVec)
	require.True(t, ok)
	m := &dto.Metric{}
	require.NoError(t, vec.With(labels).Write(m))
	return m.GetCounter().GetValue()
}

func TestNilRegistryRecordingIsNoop(t *testing.T) {
	var reg *Registry
	assert.NotPanics(t, func() {
		reg.RecordForward("console", "success")
		reg.AddBytesWritten("app", 10)
		reg.RecordRotation()
		reg.RecordRetentionDeletion()
		reg.ObserveForwardDuration(0.1)
		reg.RecordError(ComponentRouter, "write")
		reg.SetLogDirUsage("/tmp", 1024)
	})
}

func TestRegistryRecordsForward(t *testing.T) {
	reg := NewRegistry(prometheus.NewRegistry())
	reg.RecordForward("console", "success")
	got := counterValue(t, reg.eventsForwardedTotal, prometheus.Labels{"sink": "console", "status": "success"})
	assert.Equal(t, float64(1), got)
}

func TestRegistryRecordsError(t *testing.T) {
	reg := NewRegistry(prometheus.NewRegistry())
	reg.RecordError(ComponentRouter, "write")
	got := counterValue(t, reg.errorsTotal, prometheus.Labels{"component": ComponentRouter, "action": "write"})
	assert.Equal(t, float64(1), got)
}

func TestDirSizeBytesSumsFileSizes(t *testing.T) {
	dir := t.TempDir()
	f := dir + "/a.txt"
	require.NoError(t, os.WriteFile(f, []byte("hello"), 0o644))
	size, err := DirSizeBytes(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)
}
