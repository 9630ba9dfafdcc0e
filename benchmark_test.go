package arbor

import (
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// setupBenchScene creates a release-mode scene of n roots, each with `fan`
// children laid out on a grid.
func setupBenchScene(n, fan int) (*Scene, []*Entity) {
	s := NewScene(Config{Capacity: n * (fan + 1), LogLevel: "error"})
	roots := make([]*Entity, n)
	for i := range roots {
		r := s.NewEntity("root")
		r.Transform().SetLocalPosition(mgl64.Vec3{float64(i%100) * 40, float64(i/100) * 40, 0})
		for j := 0; j < fan; j++ {
			c := s.NewEntity("child")
			c.SetParent(r)
			c.Transform().SetLocalPosition(mgl64.Vec3{float64(j), 0, 0})
		}
		roots[i] = r
	}
	return s, roots
}

// --- World matrix benchmarks ---

func BenchmarkUpdate_10000Entities_Static(b *testing.B) {
	s, _ := setupBenchScene(1000, 9)
	s.Update() // warmup

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.Update()
	}
}

func BenchmarkUpdate_10000Entities_Rotating(b *testing.B) {
	s, roots := setupBenchScene(1000, 9)
	s.Update()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		// Dirty every subtree by rotating each root.
		for _, r := range roots {
			r.Transform().Rotate(mgl64.QuatRotate(0.01, mgl64.Vec3{0, 0, 1}))
		}
		s.Update()
	}
}

// --- Hierarchy benchmarks ---

func BenchmarkSetParent_RandomSubtrees(b *testing.B) {
	s, roots := setupBenchScene(1000, 9)
	rng := rand.New(rand.NewPCG(1, 2))

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		e := roots[rng.IntN(len(roots))]
		p := roots[rng.IntN(len(roots))]
		if p == e || e.IsAncestorOf(p) {
			e.SetParent(nil)
			continue
		}
		e.SetParent(p)
	}
	b.StopTimer()
	if err := s.Validate(); err != nil {
		b.Fatal(err)
	}
}

func BenchmarkDestroy_TailRoot(b *testing.B) {
	s := NewScene(Config{Capacity: 64, LogLevel: "error"})

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		r := s.NewEntity("r")
		for j := 0; j < 31; j++ {
			s.NewEntity("c").SetParent(r)
		}
		r.Destroy()
	}
}
