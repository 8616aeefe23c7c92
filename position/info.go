package position

// Info describes the chip and this driver.
type Info struct {
	ChipName         string  `yaml:"chip_name"`
	ManufacturerName string  `yaml:"manufacturer_name"`
	Interface        string  `yaml:"interface"`
	SupplyVoltageMin float32 `yaml:"supply_voltage_min_v"`
	SupplyVoltageMax float32 `yaml:"supply_voltage_max_v"`
	MaxCurrent       float32 `yaml:"max_current_ma"`
	TemperatureMin   float32 `yaml:"temperature_min"`
	TemperatureMax   float32 `yaml:"temperature_max"`
	DriverVersion    int     `yaml:"driver_version"`
}

var as5600Info = Info{
	ChipName:         "AMS AS5600",
	ManufacturerName: "AMS",
	Interface:        "IIC",
	SupplyVoltageMin: 4.5,
	SupplyVoltageMax: 5.5,
	MaxCurrent:       100.0,
	TemperatureMin:   -40.0,
	TemperatureMax:   125.0,
	DriverVersion:    1000,
}

// AS5600Info returns the static chip descriptor.
func AS5600Info() Info {
	return as5600Info
}
