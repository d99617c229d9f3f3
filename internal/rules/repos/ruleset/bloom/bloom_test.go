package bloom

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizer_CommonCases(t *testing.T) {
	s := NewSizer()

	m, k := s.Size(1, 0.01)
	assert.GreaterOrEqual(t, m, uint64(10))
	assert.Equal(t, uint8(7), k)

	m, k = s.Size(1_000_000, 0.01)
	assert.InDelta(t, 9_585_059, float64(m), 100_000)
	assert.Equal(t, uint8(7), k)

	m, k = s.Size(10_000, 0.5)
	assert.Equal(t, uint8(1), k)
	assert.NotZero(t, m)
}

func TestSizer_ClampingAndDefaults(t *testing.T) {
	s := NewSizer()
	m, k := s.Size(0, 0)
	assert.NotZero(t, m)
	assert.NotZero(t, k)

	m1, k1 := s.Size(100, 1.0)
	m2, k2 := s.Size(100, 0.01)
	assert.Equal(t, m2, m1)
	assert.Equal(t, k2, k1)
}

func TestFactory_NoFalseNegatives(t *testing.T) {
	bf := NewFactory().New(500, 0.01)
	keys := make([][]byte, 500)
	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("host%03d.openai.com", i))
		bf.Add(keys[i])
	}
	for _, k := range keys {
		assert.True(t, bf.MightContain(k), string(k))
	}
}

func TestFactory_EmptyFilterRejects(t *testing.T) {
	bf := NewFactory().New(0, 0)
	assert.False(t, bf.MightContain([]byte("openai.com")))
	bf.Add([]byte("openai.com"))
	assert.True(t, bf.MightContain([]byte("openai.com")))
}

func TestFilter_ConcurrentReadsDuringWrites(t *testing.T) {
	f := NewFactory().New(256, 0.01)

	var wg sync.WaitGroup
	done := make(chan struct{})
	keys := [][]byte{[]byte("a"), []byte("b"), []byte("c")}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10_000; i++ {
			f.Add(keys[i%3])
		}
		close(done)
	}()

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					_ = f.MightContain([]byte("probe"))
				}
			}
		}()
	}
	wg.Wait()
	for _, k := range keys {
		assert.True(t, f.MightContain(k))
	}
}

func BenchmarkBloom_Negative(b *testing.B) {
	const n = 1000
	bf := NewFactory().New(n, 0.01)
	for i := 0; i < n; i++ {
		bf.Add([]byte(fmt.Sprintf("d%03d.present.test", i)))
	}
	absent := make([][]byte, n)
	for i := range absent {
		absent[i] = []byte(fmt.Sprintf("d%03d.absent.test", i))
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bf.MightContain(absent[i%len(absent)])
	}
}
