package placing_test

import (
	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/planets/internal/camera"
	"github.com/san-kum/planets/internal/placing"
	"github.com/san-kum/planets/internal/universe"
)

func downRay(x, y float64) camera.Ray {
	return camera.Ray{Origin: mgl64.Vec3{x, y, 50}, Direction: mgl64.Vec3{0, 0, -1}}
}

var _ = Describe("Interface", func() {
	var (
		u *universe.Universe
		p *placing.Interface
	)

	BeforeEach(func() {
		u = universe.New(universe.DefaultOptions())
		p = placing.New(u)
	})

	It("starts idle and does not pause the simulation", func() {
		Expect(p.Step).To(Equal(placing.NotPlacing))
		Expect(p.PausesSimulation()).To(BeFalse())
	})

	Describe("gestures while idle", func() {
		It("consumes nothing", func() {
			consumed, hold := p.HandlePointerMove(placing.Pointer{Ray: downRay(0, 0), Delta: mgl64.Vec2{3, 4}})
			Expect(consumed).To(BeFalse())
			Expect(hold).To(BeFalse())
			Expect(p.HandlePrimaryAction(downRay(0, 0))).To(BeFalse())
			Expect(p.HandleSecondaryAxis(1)).To(BeFalse())
			Expect(p.HandleAnalogStick(mgl64.Vec2{1, 1}, false, *camera.New(), 16667)).To(BeFalse())
			Expect(p.Cancel()).To(BeFalse())
			Expect(u.IsEmpty()).To(BeTrue())
		})
	})

	Describe("free placement", func() {
		var existing universe.ID

		BeforeEach(func() {
			existing, _ = u.Add(mgl64.Vec3{100, 0, 0}, mgl64.Vec3{}, 10)
			u.SetSelected(existing)
			p.BeginInteractiveCreation()
		})

		It("clears the selection and pauses the simulation", func() {
			Expect(p.Step).To(Equal(placing.FreePositionXY))
			Expect(u.Selected()).To(Equal(universe.None))
			Expect(p.PausesSimulation()).To(BeTrue())
		})

		It("commits exactly one selected body after three primary actions", func() {
			Expect(p.HandlePrimaryAction(camera.Ray{})).To(BeTrue())
			Expect(p.Step).To(Equal(placing.FreePositionZ))
			Expect(p.HandlePrimaryAction(camera.Ray{})).To(BeTrue())
			Expect(p.Step).To(Equal(placing.FreeVelocity))
			Expect(p.HandlePrimaryAction(camera.Ray{})).To(BeTrue())

			Expect(p.Step).To(Equal(placing.NotPlacing))
			Expect(u.Len()).To(Equal(2))
			Expect(u.Selected()).NotTo(Equal(universe.None))
			Expect(u.Selected()).NotTo(Equal(existing))
		})

		It("stages the position from the pointer ray and the depth from vertical movement", func() {
			consumed, hold := p.HandlePointerMove(placing.Pointer{Ray: downRay(3, -7)})
			Expect(consumed).To(BeTrue())
			Expect(hold).To(BeFalse())
			Expect(p.Body.Position).To(Equal(mgl64.Vec3{3, -7, 0}))

			p.HandlePrimaryAction(camera.Ray{})
			consumed, hold = p.HandlePointerMove(placing.Pointer{Delta: mgl64.Vec2{0, 20}})
			Expect(consumed).To(BeTrue())
			Expect(hold).To(BeTrue())
			Expect(p.Body.Position.Z()).To(BeNumerically("~", 2, 1e-12))
		})

		It("adjusts and clamps the staged mass with the secondary axis", func() {
			start := p.Body.Mass
			Expect(p.HandleSecondaryAxis(0.5)).To(BeTrue())
			Expect(p.Body.Mass).To(BeNumerically("~", start*1.5, 1e-9))

			for i := 0; i < 200; i++ {
				p.HandleSecondaryAxis(1)
			}
			Expect(p.Body.Mass).To(Equal(universe.MaxMass))

			for i := 0; i < 200; i++ {
				p.HandleSecondaryAxis(-0.9)
			}
			Expect(p.Body.Mass).To(Equal(universe.MinMass))
		})

		It("moves the staged body with the analog stick relative to the camera yaw", func() {
			cam := camera.New()
			Expect(p.HandleAnalogStick(mgl64.Vec2{0, 1}, false, *cam, 1e6)).To(BeTrue())
			Expect(p.Body.Position.Y()).To(BeNumerically(">", 0))
			Expect(p.Body.Position.X()).To(BeNumerically("~", 0, 1e-9))

			z := p.Body.Position.Z()
			p.HandleAnalogStick(mgl64.Vec2{0, -1}, true, *cam, 1e6)
			Expect(p.Body.Position.Z()).To(BeNumerically("<", z))
		})

		Context("while aiming the velocity", func() {
			BeforeEach(func() {
				p.HandlePrimaryAction(camera.Ray{})
				p.HandlePrimaryAction(camera.Ray{})
			})

			It("consumes the secondary axis instead of leaving it to the camera", func() {
				cam := camera.New()
				before := *cam
				if !p.HandleSecondaryAxis(2) {
					cam.Zoom(2)
				}
				Expect(*cam).To(Equal(before))
				Expect(p.Body.Velocity.Len()).To(BeNumerically(">", 0))
			})

			It("rotates the velocity without changing its magnitude", func() {
				p.HandleSecondaryAxis(3)
				speed := p.Body.Velocity.Len()
				initial := p.Body.Velocity

				consumed, hold := p.HandlePointerMove(placing.Pointer{Delta: mgl64.Vec2{40, -25}})
				Expect(consumed).To(BeTrue())
				Expect(hold).To(BeTrue())
				Expect(p.Body.Velocity.Len()).To(BeNumerically("~", speed, 1e-15))
				Expect(p.Body.Velocity.ApproxEqualThreshold(initial, 1e-9)).To(BeFalse())
			})

			It("never makes the speed negative", func() {
				p.HandleSecondaryAxis(-100)
				Expect(p.Body.Velocity.Len()).To(BeZero())
			})

			It("commits the staged velocity", func() {
				p.HandleSecondaryAxis(5)
				v := p.Body.Velocity
				p.HandlePrimaryAction(camera.Ray{})

				b, ok := u.SelectedBody()
				Expect(ok).To(BeTrue())
				Expect(b.Velocity).To(Equal(v))
			})
		})

		It("cancels without adding a body", func() {
			p.HandlePrimaryAction(camera.Ray{})
			Expect(p.Cancel()).To(BeTrue())
			Expect(p.Step).To(Equal(placing.NotPlacing))
			Expect(u.Len()).To(Equal(1))
		})
	})

	Describe("firing", func() {
		BeforeEach(func() {
			p.FiringSpeed = 20
			p.FiringMass = 42
			p.EnableFiringMode(true)
		})

		It("launches a body along the ray on every primary action", func() {
			Expect(p.PausesSimulation()).To(BeFalse())

			ray := camera.Ray{Origin: mgl64.Vec3{1, 2, 3}, Direction: mgl64.Vec3{0, 3, 4}}
			Expect(p.HandlePrimaryAction(ray)).To(BeTrue())
			Expect(p.HandlePrimaryAction(ray)).To(BeTrue())
			Expect(p.Step).To(Equal(placing.Firing))
			Expect(u.Len()).To(Equal(2))

			for _, b := range u.All() {
				Expect(b.Position).To(Equal(ray.Origin))
				Expect(b.Mass).To(Equal(42.0))
				Expect(b.UIVelocity().ApproxEqualThreshold(mgl64.Vec3{0, 12, 16}, 1e-9)).To(BeTrue())
			}
		})

		It("ignores a degenerate ray", func() {
			Expect(p.HandlePrimaryAction(camera.Ray{})).To(BeFalse())
			Expect(u.IsEmpty()).To(BeTrue())
		})

		It("leaves firing mode when disabled", func() {
			p.EnableFiringMode(false)
			Expect(p.Step).To(Equal(placing.NotPlacing))
		})
	})

	Describe("orbital placement", func() {
		var center universe.ID

		It("refuses to start without a selection", func() {
			Expect(p.BeginOrbitalCreation()).To(BeFalse())
			Expect(p.Step).To(Equal(placing.NotPlacing))
		})

		Context("around a selected body", func() {
			BeforeEach(func() {
				center, _ = u.Add(mgl64.Vec3{10, 10, 5}, mgl64.Vec3{1e-4, 0, 0}, 1e6)
				u.SetSelected(center)
				Expect(p.BeginOrbitalCreation()).To(BeTrue())
			})

			It("sets the orbital radius from the pointer ray in the body's plane", func() {
				ray := camera.Ray{Origin: mgl64.Vec3{40, 10, 50}, Direction: mgl64.Vec3{0, 0, -1}}
				consumed, _ := p.HandlePointerMove(placing.Pointer{Ray: ray})
				Expect(consumed).To(BeTrue())
				Expect(p.OrbitalRadius).To(BeNumerically("~", 30, 1e-9))
				Expect(p.Body.Position.ApproxEqualThreshold(mgl64.Vec3{40, 10, 5}, 1e-9)).To(BeTrue())
			})

			It("scales the radius with the secondary axis", func() {
				r := p.OrbitalRadius
				Expect(p.HandleSecondaryAxis(1)).To(BeTrue())
				Expect(p.OrbitalRadius).To(BeNumerically("~", 2*r, 1e-9))
			})

			It("commits a body on a circular orbit and keeps the center selected", func() {
				ray := camera.Ray{Origin: mgl64.Vec3{10, 40, 50}, Direction: mgl64.Vec3{0, 0, -1}}
				p.HandlePointerMove(placing.Pointer{Ray: ray})
				Expect(p.HandlePrimaryAction(camera.Ray{})).To(BeTrue())
				Expect(p.Step).To(Equal(placing.OrbitalPlane))

				consumed, hold := p.HandlePointerMove(placing.Pointer{Delta: mgl64.Vec2{30, 10}})
				Expect(consumed).To(BeTrue())
				Expect(hold).To(BeTrue())

				Expect(p.HandlePrimaryAction(camera.Ray{})).To(BeTrue())
				Expect(p.Step).To(Equal(placing.NotPlacing))
				Expect(u.Len()).To(Equal(2))
				Expect(u.Selected()).To(Equal(center))

				c, _ := u.Get(center)
				var moon *universe.Body
				for id, b := range u.All() {
					if id != center {
						moon = b
					}
				}
				Expect(moon).NotTo(BeNil())

				offset := moon.Position.Sub(c.Position)
				rel := moon.Velocity.Sub(c.Velocity)
				Expect(offset.Len()).To(BeNumerically("~", 30, 1e-9))
				Expect(rel.Dot(offset) / (rel.Len() * offset.Len())).To(BeNumerically("~", 0, 1e-9))
				Expect(rel.Len()).To(BeNumerically("~",
					universe.CircularOrbitSpeed(universe.G, c.Mass, moon.Mass, 30), 1e-12))
			})

			It("keeps the radius clear of the center when shrunk", func() {
				c, _ := u.Get(center)
				floor := c.Radius() + p.Body.Radius()

				Expect(p.HandleSecondaryAxis(-1)).To(BeTrue())
				Expect(p.OrbitalRadius).To(BeNumerically("~", floor, 1e-9))
				Expect(p.HandleSecondaryAxis(-3)).To(BeTrue())
				Expect(p.OrbitalRadius).To(BeNumerically("~", floor, 1e-9))

				Expect(p.HandleSecondaryAxis(1)).To(BeTrue())
				Expect(p.HandleSecondaryAxis(1)).To(BeTrue())
				Expect(p.OrbitalRadius).To(BeNumerically("~", 4*floor, 1e-9))
			})

			It("commits a body at the smallest radius that survives an advance", func() {
				Expect(p.HandleSecondaryAxis(-1)).To(BeTrue())
				Expect(p.HandlePrimaryAction(camera.Ray{})).To(BeTrue())
				Expect(p.HandlePrimaryAction(camera.Ray{})).To(BeTrue())
				Expect(u.Len()).To(Equal(2))

				u.Advance(16667)
				Expect(u.Len()).To(Equal(2))
			})

			It("stays in the plane step when the body cannot be added", func() {
				Expect(p.HandlePrimaryAction(camera.Ray{})).To(BeTrue())
				p.Body.Mass = 0
				Expect(p.HandlePrimaryAction(camera.Ray{})).To(BeFalse())
				Expect(p.Step).To(Equal(placing.OrbitalPlane))
				Expect(u.Len()).To(Equal(1))
			})

			It("aborts when the center disappears", func() {
				u.Remove(center)
				Expect(p.HandleSecondaryAxis(1)).To(BeFalse())
				Expect(p.Step).To(Equal(placing.NotPlacing))
				Expect(u.IsEmpty()).To(BeTrue())
			})
		})
	})
})

var _ = Describe("Step", func() {
	DescribeTable("String",
		func(s placing.Step, expected string) {
			Expect(s.String()).To(Equal(expected))
		},
		Entry("idle", placing.NotPlacing, "not placing"),
		Entry("depth", placing.FreePositionZ, "position z"),
		Entry("orbital plane", placing.OrbitalPlane, "orbital plane"),
		Entry("out of range", placing.Step(99), "unknown"),
	)

	It("only pauses while staging", func() {
		Expect(placing.Firing.Staging()).To(BeFalse())
		Expect(placing.NotPlacing.Staging()).To(BeFalse())
		for _, s := range []placing.Step{placing.FreePositionXY, placing.FreePositionZ, placing.FreeVelocity, placing.OrbitalPlanet, placing.OrbitalPlane} {
			Expect(s.Staging()).To(BeTrue())
		}
	})
})
