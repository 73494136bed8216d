package pkg

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newSpill[T any](t *testing.T) FileSpill[T] {
	t.Helper()

	spill, err := NewFileSpill[T](filepath.Join(t.TempDir(), "spill", "items.gob"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = spill.Close() })

	return spill
}

func TestFileSpill(t *testing.T) {
	t.Run("NewFileSpill creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "a", "b", "items.gob")

		spill, err := NewFileSpill[int](path)
		require.NoError(t, err)
		defer spill.Close()

		require.Equal(t, path, spill.Path())
		require.FileExists(t, path)
	})

	t.Run("Append and Get", func(t *testing.T) {
		spill := newSpill[string](t)

		require.NoError(t, spill.Append("first"))
		require.NoError(t, spill.Append("second"))

		val, err := spill.Get(0)
		require.NoError(t, err)
		require.Equal(t, "first", val)

		val, err = spill.Get(1)
		require.NoError(t, err)
		require.Equal(t, "second", val)

		val, err = spill.Get(3)
		require.Error(t, err)
		require.Empty(t, val)
	})

	t.Run("AppendBatch adds multiple items", func(t *testing.T) {
		spill := newSpill[int](t)

		require.NoError(t, spill.AppendBatch([]int{10, 20, 30, 40, 50}))
		require.Equal(t, uint64(5), spill.Len())

		val, err := spill.Get(4)
		require.NoError(t, err)
		require.Equal(t, 50, val)
	})

	t.Run("Range iterates all items in order", func(t *testing.T) {
		spill := newSpill[int](t)
		expected := []int{100, 200, 300}
		require.NoError(t, spill.AppendBatch(expected))

		var collected []int
		err := spill.Range(func(_ uint64, item int) error {
			collected = append(collected, item)
			return nil
		})

		require.NoError(t, err)
		require.Equal(t, expected, collected)
	})

	t.Run("Range callback error stops iteration", func(t *testing.T) {
		spill := newSpill[int](t)
		require.NoError(t, spill.AppendBatch([]int{1, 2, 3}))

		count := 0
		err := spill.Range(func(index uint64, _ int) error {
			count++
			if index == 1 {
				return errors.New("stop at index 1")
			}

			return nil
		})

		require.Error(t, err)
		require.Equal(t, 2, count)
	})

	t.Run("struct zero fields are not carried between items", func(t *testing.T) {
		type point struct {
			X, Y int
		}

		spill := newSpill[point](t)
		require.NoError(t, spill.AppendBatch([]point{{X: 1, Y: 2}, {X: 3}}))

		var collected []point
		require.NoError(t, spill.Range(func(_ uint64, p point) error {
			collected = append(collected, p)
			return nil
		}))

		require.Equal(t, []point{{X: 1, Y: 2}, {X: 3}}, collected)
	})
}

func TestOpenFileSpill(t *testing.T) {
	t.Run("reopened spill is readable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "items.gob")

		spill, err := NewFileSpill[string](path)
		require.NoError(t, err)
		require.NoError(t, spill.AppendBatch([]string{"a", "b", "c"}))
		require.NoError(t, spill.Close())

		reopened, err := OpenFileSpill[string](path)
		require.NoError(t, err)
		defer reopened.Close()

		require.Equal(t, uint64(3), reopened.Len())

		val, err := reopened.Get(2)
		require.NoError(t, err)
		require.Equal(t, "c", val)
	})

	t.Run("reopened spill rejects appends", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "items.gob")

		spill, err := NewFileSpill[int](path)
		require.NoError(t, err)
		require.NoError(t, spill.Close())

		reopened, err := OpenFileSpill[int](path)
		require.NoError(t, err)
		require.Equal(t, uint64(0), reopened.Len())
		require.ErrorIs(t, reopened.Append(1), ErrReadOnly)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := OpenFileSpill[int](filepath.Join(t.TempDir(), "missing.gob"))
		require.Error(t, err)
	})
}

func BenchmarkAppend(b *testing.B) {
	spill, err := NewFileSpill[int](filepath.Join(b.TempDir(), "bench.gob"))
	if err != nil {
		b.Fatalf("failed to create filespill: %v", err)
	}
	defer spill.Close()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = spill.Append(i)
	}
}

func BenchmarkRange(b *testing.B) {
	spill, err := NewFileSpill[int](filepath.Join(b.TempDir(), "bench.gob"))
	if err != nil {
		b.Fatalf("failed to create filespill: %v", err)
	}
	defer spill.Close()

	for i := 0; i < 1000; i++ {
		_ = spill.Append(i)
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = spill.Range(func(uint64, int) error { return nil })
	}
}
