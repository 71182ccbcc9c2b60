package hive

// FindHeating returns the first heating device in listing order.
func FindHeating(devices []Device) (Device, error) {
	for _, device := range devices {
		if device.Type == heatingType {
			return device, nil
		}
	}
	return Device{}, ErrDeviceNotFound
}

func ReadStatus(device Device) Status {
	return Status{
		Temperature: device.Props.Temperature,
		Target:      device.State.Target,
		Working:     device.Props.Working,
	}
}
