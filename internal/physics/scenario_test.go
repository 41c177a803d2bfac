package physics_test

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/softsim/internal/dynamo"
	"github.com/san-kum/softsim/internal/mesh"
	"github.com/san-kum/softsim/internal/physics"
)

var _ = Describe("Soft body dropped on the floor", func() {
	var (
		cfg  dynamo.Config
		opts physics.Options
	)

	BeforeEach(func() {
		cfg = dynamo.Config{
			Dt:         0.016,
			Steps:      120,
			Iterations: physics.DefaultIterations,
			Gravity:    mgl64.Vec3{0, -9.81, 0},
			FloorY:     0,
		}
		opts = physics.DefaultOptions()
		opts.Compliance = 1e-6
		opts.InvMass = 1
	})

	run := func(source string, opts physics.Options) *physics.SoftBody {
		body, err := physics.LoadSoftBody(mesh.Default, source, opts)
		Expect(err).NotTo(HaveOccurred())

		_, err = dynamo.New(body).Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		return body
	}

	expectContained := func(body *physics.SoftBody) {
		for i, p := range body.Positions() {
			Expect(p.Y()).To(BeNumerically(">=", cfg.FloorY-1e-3), "particle %d", i)
		}
		Expect(body.MaxStretch()).To(BeNumerically("<=", 1.5))
		Expect(body.Particles().Valid()).To(BeTrue())
	}

	Context("unit cube resting on the floor", func() {
		It("stays above the floor without stretching", func() {
			expectContained(run("builtin:cube", opts))
		})
	})

	Context("unit cube released from one metre", func() {
		BeforeEach(func() {
			opts.Offset = mgl64.Vec3{0, 1, 0}
		})

		It("lands and keeps its shape", func() {
			body := run("builtin:cube", opts)
			expectContained(body)
			Expect(dynamo.LowestY(body.Particles())).To(BeNumerically("~", 0, 1e-3))
		})

		It("behaves the same with per-step multiplier reset", func() {
			opts.LambdaPolicy = physics.ResetLambdaPerStep
			expectContained(run("builtin:cube", opts))
		})
	})

	Context("cloth sheet hanging from its top row", func() {
		It("never moves the pinned row", func() {
			opts.Offset = mgl64.Vec3{0, 2, 0}
			body, err := physics.LoadSoftBody(mesh.Default, "builtin:sheet:6", opts)
			Expect(err).NotTo(HaveOccurred())

			pinned := body.PinWhere(func(_ int, r mgl64.Vec3) bool { return r.Z() <= -0.5 })
			Expect(pinned).To(BeNumerically(">", 0))
			before := body.Snapshot(nil)

			_, err = dynamo.New(body).Run(context.Background(), cfg)
			Expect(err).NotTo(HaveOccurred())

			for i, w := range body.Particles().InvMass {
				if w == 0 {
					Expect(body.Positions()[i]).To(Equal(before[i]))
				}
			}
			Expect(body.Particles().Valid()).To(BeTrue())
		})
	})

	Context("rigid constraints between pinned particles", func() {
		It("does not produce NaN", func() {
			opts.Compliance = 0
			opts.InvMass = 0
			body := run("builtin:cube", opts)
			Expect(body.Particles().Valid()).To(BeTrue())
			Expect(body.Positions()).To(Equal(body.RestPositions()))
		})
	})
})
