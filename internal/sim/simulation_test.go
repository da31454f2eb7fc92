package sim_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/physics"
	"github.com/san-kum/nbodysim/internal/scenario"
	"github.com/san-kum/nbodysim/internal/sim"
)

func binary() []dynamo.Descriptor {
	return []dynamo.Descriptor{
		{Label: "a", Mass: 1, Position: dynamo.Vec3{-1, 0, 0}, Velocity: dynamo.Vec3{0, -0.5, 0}, Radius: 0.1},
		{Label: "b", Mass: 1, Position: dynamo.Vec3{1, 0, 0}, Velocity: dynamo.Vec3{0, 0.5, 0}, Radius: 0.1},
	}
}

func testConfig() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.FrameBudget = 0
	return cfg
}

type nanIntegrator struct{}

func (nanIntegrator) Name() string { return "nan" }

func (nanIntegrator) Advance(bodies []dynamo.Body, _ []dynamo.Vec3, _ float64) ([]dynamo.Body, error) {
	out := make([]dynamo.Body, len(bodies))
	copy(out, bodies)
	out[len(out)-1].Position[0] = math.NaN()
	return out, nil
}

type failingForce struct{ err error }

func (failingForce) Name() string { return "failing" }

func (f failingForce) Accelerations([]dynamo.Body, []dynamo.Vec3) (physics.Report, error) {
	return physics.Report{}, f.err
}

var _ = Describe("Simulation", func() {
	var (
		s   *sim.Simulation
		cfg dynamo.Config
	)

	BeforeEach(func() {
		cfg = testConfig()
	})

	JustBeforeEach(func() {
		var err error
		s, err = sim.New(binary(), cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("New", func() {
		It("rejects a non-positive mass", func() {
			descs := binary()
			descs[1].Mass = 0
			_, err := sim.New(descs, cfg)
			Expect(err).To(MatchError(dynamo.ErrInvalidMass))
		})

		It("rejects an invalid config", func() {
			bad := testConfig()
			bad.Dt = -1
			_, err := sim.New(binary(), bad)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("rejects an unknown integrator", func() {
			bad := testConfig()
			bad.Integrator = "euler-cromer-2000"
			_, err := sim.New(binary(), bad)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("seeds trails with the initial positions", func() {
			tr, err := s.TrailSnapshot(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr).To(Equal([]dynamo.Vec3{{-1, 0, 0}}))
		})

		It("reports the configured components", func() {
			Expect(s.IntegratorName()).To(Equal("symplectic"))
			Expect(s.ForceModelName()).To(Equal("direct"))
		})
	})

	Describe("Step", func() {
		It("preserves the body count and keeps state finite", func() {
			for range 500 {
				Expect(s.Step(0)).To(Succeed())
			}
			bodies := s.Bodies()
			Expect(bodies).To(HaveLen(2))
			for _, b := range bodies {
				Expect(b.IsValid()).To(BeTrue())
			}
			Expect(s.Steps()).To(Equal(500))
			Expect(s.Time()).To(BeNumerically("~", 5.0, 1e-9))
		})

		It("keeps the mirror configuration symmetric", func() {
			for range 1000 {
				Expect(s.Step(0)).To(Succeed())
			}
			bodies := s.Bodies()
			for k := range 3 {
				Expect(bodies[0].Position[k]).To(BeNumerically("~", -bodies[1].Position[k], 1e-12))
				Expect(bodies[0].Velocity[k]).To(BeNumerically("~", -bodies[1].Velocity[k], 1e-12))
			}
		})

		It("keeps the center of mass fixed", func() {
			for range 1000 {
				Expect(s.Step(0)).To(Succeed())
			}
			com, total := physics.CenterOfMass(s.Bodies())
			Expect(total).To(Equal(2.0))
			Expect(com.Len()).To(BeNumerically("<", 1e-9))
		})

		It("notifies observers after each committed step", func() {
			var steps []int
			obs := sim.ObserverFunc(func(bodies []dynamo.Body, step int, t float64) {
				Expect(bodies).To(HaveLen(2))
				steps = append(steps, step)
			})
			s2, err := sim.New(binary(), cfg, sim.WithObserver(obs))
			Expect(err).NotTo(HaveOccurred())
			for range 3 {
				Expect(s2.Step(0)).To(Succeed())
			}
			Expect(steps).To(Equal([]int{1, 2, 3}))
		})

		Context("when paused", func() {
			It("leaves the state untouched", func() {
				before := s.Bodies()
				Expect(s.TogglePause()).To(BeTrue())
				for range 10 {
					Expect(s.Step(0)).To(Succeed())
				}
				Expect(s.Bodies()).To(Equal(before))
				Expect(s.Steps()).To(BeZero())
				Expect(s.Snapshot().Paused).To(BeTrue())

				Expect(s.TogglePause()).To(BeFalse())
				Expect(s.Step(0)).To(Succeed())
				Expect(s.Steps()).To(Equal(1))
			})
		})

		Context("in real-time mode", func() {
			BeforeEach(func() {
				cfg.RealTime = true
				cfg.FrameTime = 10 * time.Millisecond
			})

			It("scales dt by elapsed over frame time", func() {
				Expect(s.Step(20 * time.Millisecond)).To(Succeed())
				Expect(s.Time()).To(BeNumerically("~", 2*cfg.Dt, 1e-12))
			})

			It("uses the base dt when no elapsed time is given", func() {
				Expect(s.Step(0)).To(Succeed())
				Expect(s.Time()).To(BeNumerically("~", cfg.Dt, 1e-12))
			})
		})

		Context("with a maximum dt", func() {
			BeforeEach(func() {
				cfg.MaxDt = 0.004
			})

			It("splits the step into sub-steps", func() {
				Expect(s.Step(0)).To(Succeed())
				Expect(s.Steps()).To(Equal(3))
				Expect(s.Time()).To(BeNumerically("~", cfg.Dt, 1e-12))
			})

			It("caps the number of sub-steps", func() {
				cfg.MaxSubsteps = 2
				s2, err := sim.New(binary(), cfg)
				Expect(err).NotTo(HaveOccurred())
				Expect(s2.Step(0)).To(Succeed())
				Expect(s2.Steps()).To(Equal(2))
				Expect(s2.Time()).To(BeNumerically("~", cfg.Dt, 1e-12))
			})
		})
	})

	Describe("recoverable failures", func() {
		It("skips a step with an invalid timestep", func() {
			before := s.Bodies()
			s.SetTimeStep(-0.01)

			err := s.Step(0)
			var stepErr *dynamo.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(err).To(MatchError(dynamo.ErrInvalidTimestep))
			Expect(s.Bodies()).To(Equal(before))
			Expect(s.Steps()).To(BeZero())
			Expect(s.Diagnostics()).To(HaveLen(1))

			s.SetTimeStep(0.01)
			Expect(s.Step(0)).To(Succeed())
			Expect(s.Steps()).To(Equal(1))
		})

		It("rejects a non-finite state without committing it", func() {
			s2, err := sim.New(binary(), cfg, sim.WithIntegrator(nanIntegrator{}))
			Expect(err).NotTo(HaveOccurred())
			before := s2.Bodies()

			Expect(s2.Step(0)).To(MatchError(dynamo.ErrNumericInstability))
			Expect(s2.Bodies()).To(Equal(before))
			tr, err := s2.TrailSnapshot(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr).To(HaveLen(1))
		})

		It("surfaces force model failures", func() {
			boom := errors.New("boom")
			s2, err := sim.New(binary(), cfg, sim.WithForceModel(failingForce{err: boom}))
			Expect(err).NotTo(HaveOccurred())
			Expect(s2.Step(0)).To(MatchError(boom))
			Expect(s2.Steps()).To(BeZero())
			Expect(math.IsNaN(s2.Energy())).To(BeTrue())
		})

		It("keeps a bounded diagnostics history", func() {
			s.SetTimeStep(math.NaN())
			for range 100 {
				Expect(s.Step(0)).NotTo(Succeed())
			}
			Expect(len(s.Diagnostics())).To(BeNumerically("<=", 64))
		})
	})

	Describe("controls", func() {
		It("clamps speed to its bounds", func() {
			Expect(s.AdjustSpeed(1000)).To(Equal(cfg.MaxSpeed))
			Expect(s.AdjustSpeed(-1000)).To(Equal(cfg.MinSpeed))
			Expect(s.AdjustSpeed(math.NaN())).To(Equal(cfg.MinSpeed))
		})

		It("clamps scale without touching the physics", func() {
			before := s.Bodies()
			Expect(s.AdjustScale(1000)).To(Equal(cfg.MaxScale))
			Expect(s.AdjustScale(-1000)).To(Equal(cfg.MinScale))
			Expect(s.Snapshot().Scale).To(Equal(cfg.MinScale))
			Expect(s.Bodies()).To(Equal(before))
		})

		It("scales dt with speed", func() {
			s.AdjustSpeed(1)
			Expect(s.Step(0)).To(Succeed())
			Expect(s.Time()).To(BeNumerically("~", 2*cfg.Dt, 1e-12))
		})
	})

	Describe("trails", func() {
		It("never exceed the configured length", func() {
			Expect(s.SetTrailLength(10)).To(Succeed())
			for range 50 {
				Expect(s.Step(0)).To(Succeed())
			}
			tr, err := s.TrailSnapshot(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr).To(HaveLen(10))

			last, err := s.Body(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr[len(tr)-1]).To(Equal(last.Position))
		})

		It("truncates immediately when the length shrinks", func() {
			for range 20 {
				Expect(s.Step(0)).To(Succeed())
			}
			Expect(s.SetTrailLength(5)).To(Succeed())
			tr, _ := s.TrailSnapshot(1)
			Expect(tr).To(HaveLen(5))
			Expect(s.SetTrailLength(0)).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("uses the short length in short-orbit mode", func() {
			for range 100 {
				Expect(s.Step(0)).To(Succeed())
			}
			s.SetShortOrbitMode(true)
			tr, _ := s.TrailSnapshot(0)
			Expect(tr).To(HaveLen(cfg.ShortTrailLength))
			Expect(s.Snapshot().ShortOrbits).To(BeTrue())

			s.SetShortOrbitMode(false)
			for range 100 {
				Expect(s.Step(0)).To(Succeed())
			}
			tr, _ = s.TrailSnapshot(0)
			Expect(len(tr)).To(BeNumerically(">", cfg.ShortTrailLength))
		})

		It("clears and reseeds on toggle", func() {
			for range 10 {
				Expect(s.Step(0)).To(Succeed())
			}
			s.SetTrailEnabled(false)
			tr, _ := s.TrailSnapshot(0)
			Expect(tr).To(BeEmpty())

			for range 10 {
				Expect(s.Step(0)).To(Succeed())
			}
			tr, _ = s.TrailSnapshot(0)
			Expect(tr).To(BeEmpty())

			s.SetTrailEnabled(true)
			tr, _ = s.TrailSnapshot(0)
			Expect(tr).To(HaveLen(1))
			Expect(s.Snapshot().TrailsEnabled).To(BeTrue())
		})

		It("reports unknown bodies", func() {
			_, err := s.TrailSnapshot(7)
			Expect(err).To(MatchError(dynamo.ErrNotFound))
		})
	})

	Describe("snapshots", func() {
		It("describe every body", func() {
			f := s.Snapshot()
			Expect(f.Bodies).To(HaveLen(2))
			Expect(f.Bodies[1].Label).To(Equal("b"))
			Expect(f.Bodies[1].Position).To(Equal(dynamo.Vec3{1, 0, 0}))
			Expect(f.Speed).To(Equal(cfg.Speed))
		})

		It("produce a position log row per body", func() {
			Expect(s.Step(0)).To(Succeed())
			log := s.PositionLog()
			Expect(log).To(HaveLen(2))
			Expect(log[0].Step).To(Equal(1))
			Expect(log[0].Mass).To(Equal(1.0))
			Expect(log[1].Label).To(Equal("b"))
		})

		It("report a negative energy for the bound pair", func() {
			Expect(s.Energy()).To(BeNumerically("<", 0))
		})

		It("are safe alongside stepping", func() {
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 200 {
					_ = s.Step(0)
				}
			}()
			for range 200 {
				f := s.Snapshot()
				Expect(f.Bodies).To(HaveLen(2))
				_, _ = s.TrailSnapshot(0)
			}
			wg.Wait()
			Expect(s.Steps()).To(Equal(200))
		})
	})

	Describe("lifecycle", func() {
		It("rejects steps after Close", func() {
			Expect(s.Close()).To(Succeed())
			Expect(s.Step(0)).To(MatchError(dynamo.ErrClosed))
			Expect(s.Close()).To(Succeed())
		})

		It("runs a batch of steps", func() {
			Expect(s.Run(context.Background(), 0, 25)).To(Succeed())
			Expect(s.Steps()).To(Equal(25))
		})

		It("gives up after repeated step failures", func() {
			s.SetTimeStep(-1)
			err := s.Run(context.Background(), 0, 10)

			var stepErr *dynamo.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(err).To(MatchError(dynamo.ErrInvalidTimestep))
			Expect(s.Steps()).To(Equal(0))
		})

		It("stops when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			Expect(s.Run(ctx, time.Millisecond, 0)).To(MatchError(context.Canceled))
		})

		It("returns once closed", func() {
			done := make(chan error, 1)
			go func() { done <- s.Run(context.Background(), time.Millisecond, 0) }()
			Eventually(s.Steps).Should(BeNumerically(">", 0))
			Expect(s.Close()).To(Succeed())
			Eventually(done).Should(Receive(BeNil()))
		})
	})
})

var _ = DescribeTable("Step keeps every body finite",
	func(build func() []dynamo.Descriptor, integrator string) {
		descs := build()
		cfg := testConfig()
		cfg.Integrator = integrator
		cfg.Speed = 50

		s, err := sim.New(descs, cfg)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(s.Close)

		for range 300 {
			Expect(s.Step(0)).To(Succeed())
		}
		Expect(s.Diagnostics()).To(BeEmpty())

		bodies := s.Bodies()
		Expect(bodies).To(HaveLen(len(descs)))
		for _, b := range bodies {
			Expect(b.IsValid()).To(BeTrue(), "body %d left the finite range", b.ID)
		}
	},
	Entry("single body", func() []dynamo.Descriptor {
		return []dynamo.Descriptor{{Label: "lone", Mass: 3, Velocity: dynamo.Vec3{0.1, 0, 0}, Radius: 0.1}}
	}, "symplectic"),
	Entry("coincident bodies", func() []dynamo.Descriptor {
		return []dynamo.Descriptor{
			{Label: "a", Mass: 1, Radius: 0.1},
			{Label: "b", Mass: 1, Radius: 0.1},
			{Label: "c", Mass: 2, Position: dynamo.Vec3{1e-9, 0, 0}, Radius: 0.1},
		}
	}, "leapfrog"),
	Entry("binary with rk4", binary, "rk4"),
	Entry("large random star", func() []dynamo.Descriptor {
		descs, err := scenario.RandomStar(200, 7)
		Expect(err).NotTo(HaveOccurred())
		return descs
	}, "symplectic"),
)
