package synth

import (
	"math"
	"sync/atomic"
)

// atomicFloat32 is a lock-free float32 cell shared between the control thread
// and the render thread. Stores and loads use relaxed semantics: the render
// thread always sees some recently written value, which is sufficient because
// every parameter's audible effect is continuous.
type atomicFloat32 struct {
	bits uint32
}

func (a *atomicFloat32) Store(v float32) {
	atomic.StoreUint32(&a.bits, math.Float32bits(v))
}

func (a *atomicFloat32) Load() float32 {
	return math.Float32frombits(atomic.LoadUint32(&a.bits))
}

// atomicInt32 holds a small enum tag (waveform, chorus mode) as a single
// atomic word.
type atomicInt32 struct {
	v int32
}

func (a *atomicInt32) Store(v int32) {
	atomic.StoreInt32(&a.v, v)
}

func (a *atomicInt32) Load() int32 {
	return atomic.LoadInt32(&a.v)
}
