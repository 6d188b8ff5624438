package fvrpt

import (
	"fmt"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
)

// CollectSysInfo describes the machine a report was produced on. Fields that
// cannot be queried stay empty.
func CollectSysInfo() SysInfo {
	info := SysInfo{}
	if hostStat, err := host.Info(); err == nil {
		info.Platform = hostStat.Platform
	} else {
		Log(LOG_DEBUG, "Couldn't read host info: %s", err.Error())
	}
	if cpuStat, err := cpu.Info(); err == nil && len(cpuStat) > 0 {
		info.CPU = cpuStat[0].ModelName
	}
	if vmStat, err := mem.VirtualMemory(); err == nil {
		info.RAM = fmt.Sprintf("%d GB", vmStat.Total/1024/1024/1024)
	}
	return info
}
