package config

import "github.com/tauraamui/noicevoid/pkg/configdef"

type defaultSettingKey uint

const (
	UPLOADDIR          defaultSettingKey = 0x0
	OUTPUTDIR          defaultSettingKey = 0x1
	LISTENADDRESS      defaultSettingKey = 0x2
	POOLSIZE           defaultSettingKey = 0x3
	HISTORY            defaultSettingKey = 0x4
	VARTHRESHOLD       defaultSettingKey = 0x5
	VIDEOBACKEND       defaultSettingKey = 0x6
	DEFAULTSCALE       defaultSettingKey = 0x7
	DEFAULTRENDERSCALE defaultSettingKey = 0x8
	MAXUPLOADAGEHOURS  defaultSettingKey = 0x9
)

var defaultSettings = map[defaultSettingKey]interface{}{
	UPLOADDIR:          "uploads",
	OUTPUTDIR:          "processed_videos",
	LISTENADDRESS:      "127.0.0.1:8000",
	POOLSIZE:           500,
	HISTORY:            300,
	VARTHRESHOLD:       60.0,
	VIDEOBACKEND:       "opencv",
	DEFAULTSCALE:       0.5,
	DEFAULTRENDERSCALE: 1.0,
	MAXUPLOADAGEHOURS:  24,
}

func defaultValues() configdef.Values {
	return configdef.Values{
		UploadDir:          defaultSettings[UPLOADDIR].(string),
		OutputDir:          defaultSettings[OUTPUTDIR].(string),
		ListenAddress:      defaultSettings[LISTENADDRESS].(string),
		PoolSize:           defaultSettings[POOLSIZE].(int),
		History:            defaultSettings[HISTORY].(int),
		VarThreshold:       defaultSettings[VARTHRESHOLD].(float64),
		VideoBackend:       defaultSettings[VIDEOBACKEND].(string),
		DefaultScale:       defaultSettings[DEFAULTSCALE].(float64),
		DefaultRenderScale: defaultSettings[DEFAULTRENDERSCALE].(float64),
		MaxUploadAgeHours:  defaultSettings[MAXUPLOADAGEHOURS].(int),
	}
}
