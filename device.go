// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raygpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Register the Vulkan backend for OpenVulkan.
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/raygpu/internal/logging"
)

var (
	// ErrNoBackend is returned when the requested HAL backend is not
	// compiled in.
	ErrNoBackend = errors.New("raygpu: backend not available")

	// ErrNoAdapter is returned when a backend exposes no adapters.
	ErrNoAdapter = errors.New("raygpu: no GPU adapters found")

	// ErrNotHalProvider is returned by NewContextFromProvider when the
	// provider does not expose HAL device and queue handles.
	ErrNotHalProvider = errors.New("raygpu: provider does not expose HAL types")
)

// DeviceProvider provides GPU device access from the host application.
//
// A host that already owns a device (a windowing framework, for example)
// passes it to NewContextFromProvider instead of letting raygpu open its
// own. The provider must also implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue.
type DeviceProvider = gpucontext.DeviceProvider

// halProvider is the HAL escape hatch of a DeviceProvider.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// Backend creates HAL instances. hal.Backend and the noop backend
// satisfy it.
type Backend interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// Device is a device opened by raygpu together with the instance it came
// from. Close releases both.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  string
}

// OpenVulkan opens a device on the Vulkan backend.
func OpenVulkan() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan", ErrNoBackend)
	}
	return Open(backend)
}

// Open creates an instance on backend and opens a device on its best
// adapter: the first discrete GPU, else the first integrated GPU, else
// the first adapter listed.
func Open(backend Backend) (*Device, error) {
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("raygpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := selectAdapter(adapters)

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("raygpu: open device: %w", err)
	}

	logging.Logger().Info("raygpu: device opened",
		"adapter", selected.Info.Name,
		"type", selected.Info.DeviceType)
	return &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		adapter:  selected.Info.Name,
	}, nil
}

func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i]
			}
		}
	}
	return &adapters[0]
}

// Device returns the HAL device.
func (d *Device) Device() hal.Device { return d.device }

// Queue returns the HAL queue.
func (d *Device) Queue() hal.Queue { return d.queue }

// AdapterName returns the name of the adapter the device was opened on.
func (d *Device) AdapterName() string { return d.adapter }

// Close destroys the device and its instance. Contexts created on the
// device must be destroyed first.
func (d *Device) Close() {
	if d.device != nil {
		d.device.Destroy()
		d.device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
	d.queue = nil
}

// NewContextFromProvider creates a Context on a device owned by the host.
// Destroying the Context leaves the device alive.
//
// Unless WithColorAttachments is given, the Context renders to the
// provider's surface format when it reports one.
func NewContextFromProvider(provider DeviceProvider, opts ...Option) (*Context, error) {
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNotHalProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNotHalProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNotHalProvider)
	}

	if f := provider.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
		opts = append([]Option{WithColorAttachments(f)}, opts...)
	}
	return NewContext(device, queue, opts...)
}
