package gpu

// Offscreen is the single framebuffer used for blur passes, flatten bakes and snapshots.
// Whoever binds it must restore the on-screen target before handing control back.
type Offscreen struct {
	device   Device
	handle   FramebufferHandle
	attached *Texture
}

func NewOffscreen(device Device) *Offscreen {
	return &Offscreen{device: device, handle: device.CreateFramebuffer()}
}

func (o *Offscreen) Bind() {
	o.device.BindFramebuffer(o.handle)
}

func (o *Offscreen) Attach(tex *Texture) {
	o.attached = tex
	o.device.FramebufferTexture(o.handle, tex.Handle())
}

// Attached reports the texture currently receiving offscreen draws.
func (o *Offscreen) Attached() *Texture { return o.attached }

func (o *Offscreen) Delete() {
	if o.handle != 0 {
		o.device.DeleteFramebuffer(o.handle)
		o.handle = 0
	}
	o.attached = nil
}
