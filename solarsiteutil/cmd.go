/*
Copyright © 2019 the solarsite authors.
This file is part of solarsite.

solarsite is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

solarsite is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with solarsite.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package solarsiteutil holds the command-line interface and
// configuration handling for solarsite.
package solarsiteutil

import (
	"fmt"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/solarsite"
	"github.com/spatialmodel/solarsite/irradiance"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to solarsite.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Elevation",
			usage: `
              Elevation is the path to the elevation raster, either an ESRI ASCII
              grid (.asc) with an optional .prj file or a netCDF file (.nc).
              The path can include environment variables.`,
			shorthand:  "e",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "Roads",
			usage: `
              Roads is the path to the road network line shapefile. If it has a .prj
              file that differs from the elevation projection, the roads are
              reprojected. The path can include environment variables.`,
			shorthand:  "r",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory the output rasters, zone shapefile and
              run manifest are written to. It can include environment variables.`,
			shorthand:  "o",
			defaultVal: "results",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "OutputFormat",
			usage: `
              OutputFormat is the raster output format: nc for netCDF or asc for
              ESRI ASCII grids.`,
			defaultVal: solarsite.FormatNetCDF,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can include
              environment variables. If LogFile is left blank, the logfile will be saved
              next to OutputDir with the extension .log.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Weights.Solar",
			usage: `
              Weights.Solar is the weight of the irradiance score. The four weights
              must sum to 1.`,
			defaultVal: solarsite.DefaultWeights.Solar,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "Weights.Slope",
			usage: `
              Weights.Slope is the weight of the slope score.`,
			defaultVal: solarsite.DefaultWeights.Slope,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "Weights.Aspect",
			usage: `
              Weights.Aspect is the weight of the aspect score.`,
			defaultVal: solarsite.DefaultWeights.Aspect,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "Weights.Distance",
			usage: `
              Weights.Distance is the weight of the road distance score.`,
			defaultVal: solarsite.DefaultWeights.Distance,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "Threshold",
			usage: `
              Threshold is the minimum suitability (between 1 and 5, inclusive) of
              cells that can be part of a zone.`,
			defaultVal: solarsite.DefaultThreshold,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "MinAreaM2",
			usage: `
              MinAreaM2 is the area in m² that a zone must exceed to be selected.`,
			defaultVal: solarsite.DefaultMinArea,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "AllowGeographic",
			usage: `
              AllowGeographic allows elevation grids in longitude/latitude
              coordinates. Distances and areas are then in degrees.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "Terrain.ZFactor",
			usage: `
              Terrain.ZFactor converts elevation units to horizontal grid units.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "Irradiance.Period",
			usage: `
              Irradiance.Period is the season over which insolation is accumulated:
              summer, autumn, winter, spring or year.`,
			defaultVal: "summer",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "Irradiance.Year",
			usage: `
              Irradiance.Year is the year of the irradiance period. Winter starts in
              December of the previous year.`,
			defaultVal: 2020,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "Irradiance.DayInterval",
			usage: `
              Irradiance.DayInterval is the number of days between sampled days.`,
			defaultVal: 14,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "Irradiance.HourInterval",
			usage: `
              Irradiance.HourInterval is the number of hours between sampled sun
              positions.`,
			defaultVal: 2.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "Irradiance.Latitude",
			usage: `
              Irradiance.Latitude is the latitude in degrees used to position the sun.`,
			defaultVal: irradiance.DefaultLatitude,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "Irradiance.LatitudeFromGrid",
			usage: `
              If Irradiance.LatitudeFromGrid is true, the latitude of the center of the
              elevation grid is used instead of Irradiance.Latitude. The grid
              projection must be known.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "Irradiance.Transmissivity",
			usage: `
              Irradiance.Transmissivity is the fraction of direct radiation that
              passes through the atmosphere at zenith.`,
			defaultVal: irradiance.DefaultTransmissivity,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "Irradiance.DiffuseProportion",
			usage: `
              Irradiance.DiffuseProportion is the fraction of global radiation that
              is diffuse.`,
			defaultVal: irradiance.DefaultDiffuseProportion,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "Aspect.FlatPolicy",
			usage: `
              Aspect.FlatPolicy sets the aspect score of flat cells: neutral gives
              them a score of 3 and nodata excludes them.`,
			defaultVal: "neutral",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "Solar.Breaks",
			usage: `
              Solar.Breaks are up to four ascending irradiance values (Wh/m²) that
              separate the irradiance score classes. If empty, quintiles of the
              simulated irradiance are used.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), checkCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("SOLARSITE")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(checkCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("solarsite: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "solarsite",
	Short: "Suitability analysis for solar power plant siting.",
	Long: `solarsite ranks terrain for solar power plants. It derives slope, aspect,
clear-sky irradiance and distance to roads from an elevation grid and a road
network, scores each criterion from 1 to 5, combines the scores with a
weighted linear model and selects contiguous zones above a suitability
threshold that are larger than a minimum area.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'SOLARSITE_var' where 'var' is the
name of the variable to be set, with '.' replaced by '_'. Paths can contain
environment variables.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of solarsite.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("solarsite v%s\n", solarsite.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd is a command that runs the suitability model.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the suitability model.",
	Long: `run derives the criteria, scores and combines them, extracts the
candidate zones and writes every intermediate raster, the zone shapefile
and table, and a run manifest to OutputDir. Nothing is written unless every
stage succeeds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := RunConfig(Cfg)
		if err != nil {
			return err
		}
		c, err := Collaborators(Cfg)
		if err != nil {
			return err
		}
		return Run(cmd, checkLogFile(os.ExpandEnv(Cfg.GetString("LogFile")), cfg.OutputDir), cfg, c)
	},
	DisableAutoGenTag: true,
}

// checkCmd is a command that checks the configuration and inputs.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the configuration and inputs.",
	Long: `check validates the configuration, reads the elevation grid and the road
network and reports their extent without running the model or writing
any output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := RunConfig(Cfg)
		if err != nil {
			return err
		}
		return Check(cmd, cfg)
	},
	DisableAutoGenTag: true,
}
