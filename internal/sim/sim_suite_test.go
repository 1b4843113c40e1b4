package sim_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cyberdyn/internal/analysis"
	"github.com/san-kum/cyberdyn/internal/config"
	"github.com/san-kum/cyberdyn/internal/dynamo"
	"github.com/san-kum/cyberdyn/internal/integrators"
	"github.com/san-kum/cyberdyn/internal/sim"
)

func TestSim(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Simulator Suite")
}

var _ = Describe("Simulator", func() {
	var (
		s   *sim.Simulator
		ctx context.Context
	)

	BeforeEach(func() {
		s = sim.New()
		ctx = context.Background()
	})

	Describe("sampling", func() {
		DescribeTable("produces floor(T/h)+1 samples",
			func(span, h float64, want int) {
				req := sim.DefaultRequest()
				req.TimeSpan, req.Resolution = span, h
				res, err := s.Run(ctx, req)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.TimeSeries.T).To(HaveLen(want))
				Expect(res.Metadata.DataPoints).To(Equal(want))
			},
			Entry("one day at 0.1h", 24.0, 0.1, 241),
			Entry("one week at 1h", 168.0, 1.0, 169),
			Entry("ten hours at 0.5h", 10.0, 0.5, 21),
		)
	})

	Describe("validation", func() {
		It("rejects a horizon above one week before integrating", func() {
			req := sim.DefaultRequest()
			req.TimeSpan = 200
			res, err := s.Run(ctx, req)
			Expect(res).To(BeNil())

			var ve *dynamo.ValidationError
			Expect(errors.As(err, &ve)).To(BeTrue())
			Expect(ve.Field).To(Equal("time_span"))
		})

		It("rejects a resolution coarser than T/10", func() {
			req := sim.DefaultRequest()
			req.TimeSpan, req.Resolution = 4, 0.5
			_, err := s.Run(ctx, req)
			Expect(dynamo.Kind(err)).To(Equal("validation_error"))
		})
	})

	Describe("presets", func() {
		for _, name := range config.ListPresets() {
			It("runs the "+name+" scenario to completion", func() {
				res, err := s.Run(ctx, sim.FromScenario(config.GetPreset(name)))
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Metadata.SolverSuccess).To(BeTrue())
				Expect(analysis.Labels).To(ContainElement(res.Stability))
				Expect(res.Eigenvalues).To(HaveLen(4))
			})
		}
	})

	Describe("solver agreement", func() {
		It("gives the same classification for every method on the default scenario", func() {
			labels := map[analysis.Stability]int{}
			for _, m := range integrators.Methods() {
				req := sim.DefaultRequest()
				req.SolverMethod = m
				res, err := s.Run(ctx, req)
				Expect(err).NotTo(HaveOccurred(), m)
				labels[res.Stability]++
			}
			Expect(labels).To(HaveLen(1))
		})
	})
})
