package scene

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/wcpmod/iffmesh"
)

// extractHardpoints collects the scene's visible hardpoint markers:
// empties named with the "hp-" prefix, positioned and oriented relative
// to the model origin through every intermediate parent. Hidden markers
// are never exported. The collision override marker is not a hardpoint.
func extractHardpoints(s *iffmesh.Scene) ([]iffmesh.Hardpoint, error) {
	var hps []iffmesh.Hardpoint
	var dup error
	seen := make(map[string]struct{})

	walkFrames(s, func(n iffmesh.Node, f frame) {
		e, ok := n.(*iffmesh.EmptyNode)
		if !ok || e.Hidden || e.Name == CollSphereName {
			return
		}
		if !strings.HasPrefix(e.Name, HardpointPrefix) {
			return
		}
		name := strings.TrimPrefix(e.Name, HardpointPrefix)
		if _, taken := seen[name]; taken {
			if dup == nil {
				dup = iffmesh.DuplicateHardpointError(name)
			}
			return
		}
		seen[name] = struct{}{}
		hps = append(hps, iffmesh.Hardpoint{
			Name:     name,
			Position: f.pos,
			Rotation: f.rot,
		})
	})
	if dup != nil {
		return nil, dup
	}
	return hps, nil
}

// collisionSphere resolves the model's collision volume. An empty named
// "collsphr" overrides the computed sphere: its accumulated position is
// the center and its draw size times the largest scale axis the radius.
// Without one, the LOD 0 bounding sphere is used.
func collisionSphere(s *iffmesh.Scene, lod0 *iffmesh.LODMesh) iffmesh.Sphere {
	var override *iffmesh.Sphere
	walkFrames(s, func(n iffmesh.Node, f frame) {
		e, ok := n.(*iffmesh.EmptyNode)
		if !ok || e.Name != CollSphereName || override != nil {
			return
		}
		override = &iffmesh.Sphere{
			Center: f.pos,
			Radius: maxAxis(f.scale) * e.DrawSize,
		}
	})
	if override != nil {
		return *override
	}
	return iffmesh.Sphere{Center: lod0.Center, Radius: lod0.Radius}
}

func maxAxis(v mgl32.Vec3) float32 {
	max := v[0]
	if v[1] > max {
		max = v[1]
	}
	if v[2] > max {
		max = v[2]
	}
	return max
}
