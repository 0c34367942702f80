// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"sync"
	"unsafe"

	vk "github.com/devblok/vulkan"
	"github.com/sirupsen/logrus"
)

const (
	validationLayer      = "VK_LAYER_KHRONOS_validation"
	debugReportExtension = "VK_EXT_debug_report"
)

var (
	debugLoggerMutex sync.RWMutex
	debugLogger      logrus.FieldLogger = logrus.StandardLogger()
)

func setDebugLogger(l logrus.FieldLogger) {
	debugLoggerMutex.Lock()
	debugLogger = l
	debugLoggerMutex.Unlock()
}

func createDebugCallback(instance vk.Instance) (vk.DebugReportCallback, error) {
	var callback vk.DebugReportCallback
	drcci := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
			vk.DebugReportPerformanceWarningBit | vk.DebugReportInformationBit),
		PfnCallback: debugReportCallback,
	}
	if err := vk.Error(vk.CreateDebugReportCallback(instance, &drcci, nil, &callback)); err != nil {
		return nil, fmt.Errorf("vk.CreateDebugReportCallback(): %w", err)
	}
	return callback, nil
}

func debugReportCallback(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	debugLoggerMutex.RLock()
	entry := debugLogger.WithFields(logrus.Fields{
		"layer":  pLayerPrefix,
		"code":   messageCode,
		"object": object,
	})
	debugLoggerMutex.RUnlock()

	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		entry.Error(pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		entry.Warn(pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportInformationBit) != 0:
		entry.Info(pMessage)
	default:
		entry.Debug(pMessage)
	}
	return vk.Bool32(vk.False)
}
