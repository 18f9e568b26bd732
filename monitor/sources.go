package monitor

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/YuminosukeSato/gridflow/pkg/errors"
)

const bytesPerMiB = 1024 * 1024

// NewCPU monitors total CPU utilization in percent.
func NewCPU(freq time.Duration) *Monitor {
	return New("cpu", "%", freq, func() (float64, error) {
		percents, err := cpu.Percent(0, false)
		if err != nil {
			return 0, errors.Wrap(err, "reading CPU utilization")
		}
		if len(percents) == 0 {
			return 0, errors.New("no CPU utilization reported")
		}
		return percents[0], nil
	})
}

// NewMemory monitors system memory utilization in percent.
func NewMemory(freq time.Duration) *Monitor {
	return New("memory", "%", freq, func() (float64, error) {
		vm, err := mem.VirtualMemory()
		if err != nil {
			return 0, errors.Wrap(err, "reading virtual memory")
		}
		return vm.UsedPercent, nil
	})
}

// NewRSS monitors the current process resident set size in MiB.
func NewRSS(freq time.Duration) (*Monitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, errors.Wrap(err, "opening current process")
	}
	return New("rss", "MiB", freq, func() (float64, error) {
		info, err := proc.MemoryInfo()
		if err != nil {
			return 0, errors.Wrap(err, "reading process memory")
		}
		return float64(info.RSS) / bytesPerMiB, nil
	}), nil
}

// NewVMS monitors the current process virtual memory size in MiB.
func NewVMS(freq time.Duration) (*Monitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, errors.Wrap(err, "opening current process")
	}
	return New("vms", "MiB", freq, func() (float64, error) {
		info, err := proc.MemoryInfo()
		if err != nil {
			return 0, errors.Wrap(err, "reading process memory")
		}
		return float64(info.VMS) / bytesPerMiB, nil
	}), nil
}
