// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import "github.com/chewxy/math32"

// Shared geometric and primitive value types used across the model,
// texture, and collision formats, grounded on original_source's
// lib/src/format/mod.rs.

// Vector3 is a packed little-endian 3-component float vector (CVector3f).
type Vector3 struct {
	X, Y, Z float32
}

// Sub returns v - other.
func (v Vector3) Sub(other Vector3) Vector3 {
	return Vector3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Length returns the Euclidean length of v, grounded on soypat-glgl's
// math32-backed vector math (math/ms3/quat.go).
func (v Vector3) Length() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Color4 is a packed little-endian RGBA float color (CColor4f).
type Color4 struct {
	R, G, B, A float32
}

// Vector4i is a packed little-endian 4-component int32 vector (CVector4i).
type Vector4i struct {
	X, Y, Z, W int32
}

// Vector3i is a packed little-endian 3-component int32 vector (CVector3i).
type Vector3i struct {
	X, Y, Z int32
}

// Matrix4 is a packed little-endian 4x4 float matrix stored row-major
// (CMatrix4f).
type Matrix4 struct {
	M [16]float32
}

// AABox is an axis-aligned bounding box (CAABox).
type AABox struct {
	Min, Max Vector3
}

// Center returns the box's midpoint.
func (b AABox) Center() Vector3 {
	return Vector3{
		X: (b.Min.X + b.Max.X) / 2,
		Y: (b.Min.Y + b.Max.Y) / 2,
		Z: (b.Min.Z + b.Max.Z) / 2,
	}
}

// BoundingRadius returns the radius of the sphere centered on b.Center
// that exactly encloses b, the cheap LOD/culling bound a model viewer
// derives from a mesh's CAABox rather than walking every vertex.
func (b AABox) BoundingRadius() float32 {
	return b.Max.Sub(b.Center()).Length()
}

// Transform4 is a packed 3x4 affine transform, the rotation/translation
// basis without the trailing homogeneous row (CTransform4f).
type Transform4 struct {
	M00, M01, M02, M03 float32
	M10, M11, M12, M13 float32
	M20, M21, M22, M23 float32
}

// OBBox is an oriented bounding box: a transform plus half-extents
// (COBBox).
type OBBox struct {
	Transform Transform4
	Extents   Vector3
}
