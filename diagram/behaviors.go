package diagram

// panBehavior drags the whole diagram when the background is grabbed with
// the primary button.
type panBehavior struct {
	d    *Diagram
	last *Point
}

func registerPan(d *Diagram) {
	b := &panBehavior{d: d}
	d.OnPointerDown(b.down)
	d.OnPointerMove(b.move)
	d.OnPointerUp(b.up)
}

func (b *panBehavior) down(target Model, e PointerEvent) {
	if target != nil || e.Button != 0 || !b.d.Options().AllowPanning {
		return
	}
	p := e.Position()
	b.last = &p
}

func (b *panBehavior) move(_ Model, e PointerEvent) {
	if b.last == nil {
		return
	}
	cur := e.Position()
	delta := cur.Sub(*b.last)
	b.last = &cur
	b.d.UpdatePan(delta.X, delta.Y)
}

func (b *panBehavior) up(Model, PointerEvent) {
	b.last = nil
}

// zoomBehavior scales around the pointer so the point under the cursor
// stays put.
type zoomBehavior struct {
	d *Diagram
}

func registerZoom(d *Diagram) {
	b := &zoomBehavior{d: d}
	d.OnWheel(b.wheel)
}

func (b *zoomBehavior) wheel(e WheelEvent) {
	d := b.d
	opts := d.Options().Zoom
	container := d.Container()
	if !opts.Enabled || container == nil || e.DeltaY == 0 || opts.ScaleFactor <= 0 {
		return
	}

	oldZoom := d.Zoom()
	deltaY := e.DeltaY
	if opts.Inverse {
		deltaY = -deltaY
	}

	newZoom := oldZoom / opts.ScaleFactor
	if deltaY > 0 {
		newZoom = oldZoom * opts.ScaleFactor
	}
	newZoom = clamp(newZoom, opts.Minimum, opts.Maximum)
	if newZoom == oldZoom {
		return
	}

	w, h := container.Width, container.Height
	if w == 0 || h == 0 {
		return
	}
	widthDiff := w*newZoom - w*oldZoom
	heightDiff := h*newZoom - h*oldZoom

	pan := d.Pan()
	clientX := e.ClientX - container.X
	clientY := e.ClientY - container.Y
	xFactor := (clientX - pan.X) / oldZoom / w
	yFactor := (clientY - pan.Y) / oldZoom / h

	d.Batch(func() {
		d.SetPan(pan.X-widthDiff*xFactor, pan.Y-heightDiff*yFactor)
		// newZoom is positive and already clamped
		_ = d.SetZoom(newZoom)
	})
}
