package server

import "math"

// Vec3 世界坐标系下的三维向量（Y 轴朝上）
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Forward 默认朝向（-Z）；零向量方向统一回退到它，避免 NaN 扩散
var Forward = Vec3{X: 0, Y: 0, Z: -1}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// NormalizeOr 归一化；长度为零时返回 fallback
func (v Vec3) NormalizeOr(fallback Vec3) Vec3 {
	lsq := v.LengthSq()
	if lsq == 0 {
		return fallback
	}
	inv := 1 / math.Sqrt(lsq)
	return v.Scale(inv)
}

// DistSq 两点距离的平方（命中判定只做阈值比较，省掉开方）
func DistSq(a, b Vec3) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return dx*dx + dy*dy + dz*dz
}
