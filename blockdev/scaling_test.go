package blockdev_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mufs/fat/blockdev"
)

func TestScalingBackend_ReadConcatenatesInnerBlocks(t *testing.T) {
	inner := newTestDevice(t, 8)
	for i := uint(0); i < 8; i++ {
		require.NoError(t, blockdev.WriteAt(inner, i, bytes(512, byte(i))))
	}

	scaled, err := blockdev.NewScalingBackend(inner, 512*4)
	require.NoError(t, err)

	got := make([]byte, 512*4)
	require.NoError(t, blockdev.ReadAt(scaled, 0, got))

	want := make([]byte, 0, 512*4)
	for i := uint(0); i < 4; i++ {
		want = append(want, bytes(512, byte(i))...)
	}
	assert.Equal(t, want, got)
}

func TestScalingBackend_RejectsNonMultipleLogicalSize(t *testing.T) {
	inner := newTestDevice(t, 8)
	_, err := blockdev.NewScalingBackend(inner, 500)
	assert.Error(t, err)
}

func TestScalingBackend_BlockCountDividesDown(t *testing.T) {
	inner := newTestDevice(t, 8)
	scaled, err := blockdev.NewScalingBackend(inner, 512*4)
	require.NoError(t, err)
	assert.EqualValues(t, 2, scaled.BlockCount())
}
