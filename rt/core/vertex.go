package core

// Vertex is the per-vertex stream of every mesh (stream 0).
type Vertex struct {
	Position [3]float32 `gpu:"layout" location:"0" format:"float3"`
	Normal   [3]float32 `gpu:"layout" location:"1" format:"float3"`
	UV       [2]float32 `gpu:"layout" location:"2" format:"float2"`
}
