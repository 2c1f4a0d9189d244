package modules

import (
	"github.com/Mohdjariullah/Vlad-AJ-simplified/modules/plugins"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/modules/plugins/dailyaccess"
	"github.com/Mohdjariullah/Vlad-AJ-simplified/modules/plugins/gatekeeper"
)

var (
	pluginCache         map[string]*Plugin
	extendedPluginCache map[string]*ExtendedPlugin

	PluginList = []Plugin{
		&plugins.Ping{},
		&plugins.Help{},
		&plugins.Debug{},
	}

	PluginExtendedList = []ExtendedPlugin{
		&gatekeeper.Handler{},
		&dailyaccess.Handler{},
	}
)
