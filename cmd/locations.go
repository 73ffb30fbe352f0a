package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/localpulse/listings-cli/internal/model"
	"github.com/localpulse/listings-cli/internal/store"
)

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "Manage locations",
}

var addLocation model.Location

var locationsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a location",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		loc, err := st.CreateLocation(ctx, addLocation)
		if err != nil {
			return eris.Wrap(err, "create location")
		}

		zap.L().Info("location created",
			zap.String("id", loc.ID),
			zap.String("agency_id", loc.AgencyID),
			zap.String("name", loc.Name),
		)
		return nil
	},
}

var (
	listAgencyID string
	listStatus   string
)

var locationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List locations with their sync status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if listStatus != "" && !model.SyncStatus(listStatus).Valid() {
			return eris.Errorf("invalid sync status %q", listStatus)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		locations, err := st.ListLocations(ctx, store.LocationFilter{
			AgencyID: listAgencyID,
			Status:   model.SyncStatus(listStatus),
		})
		if err != nil {
			return eris.Wrap(err, "list locations")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(locations)
	},
}

var importYAMLPath string

// seedFile is the YAML shape accepted by `locations import`.
type seedFile struct {
	Locations []seedLocation `yaml:"locations"`
}

type seedLocation struct {
	AgencyID  string  `yaml:"agency_id"`
	Name      string  `yaml:"name"`
	Street    string  `yaml:"street"`
	City      string  `yaml:"city"`
	Country   string  `yaml:"country"`
	Phone     string  `yaml:"phone"`
	Website   string  `yaml:"website"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

func (s seedLocation) toModel() model.Location {
	return model.Location{
		AgencyID:  s.AgencyID,
		Name:      s.Name,
		Street:    s.Street,
		City:      s.City,
		Country:   s.Country,
		Phone:     s.Phone,
		Website:   s.Website,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
	}
}

var locationsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import locations from a YAML seed file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(importYAMLPath)
		if err != nil {
			return eris.Wrap(err, "read seed file")
		}

		var seed seedFile
		if err := yaml.Unmarshal(data, &seed); err != nil {
			return eris.Wrap(err, "parse seed file")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		var created int
		for _, entry := range seed.Locations {
			if _, err := st.CreateLocation(ctx, entry.toModel()); err != nil {
				zap.L().Warn("skipping location",
					zap.String("name", entry.Name),
					zap.Error(err),
				)
				continue
			}
			created++
		}

		zap.L().Info("import complete",
			zap.Int("created", created),
			zap.Int("skipped", len(seed.Locations)-created),
			zap.String("file", importYAMLPath),
		)
		return nil
	},
}

func init() {
	f := locationsAddCmd.Flags()
	f.StringVar(&addLocation.AgencyID, "agency", "", "agency id (required)")
	f.StringVar(&addLocation.Name, "name", "", "business name")
	f.StringVar(&addLocation.Street, "street", "", "street address")
	f.StringVar(&addLocation.City, "city", "", "city")
	f.StringVar(&addLocation.Country, "country", "", "country code")
	f.StringVar(&addLocation.Phone, "phone", "", "phone number")
	f.StringVar(&addLocation.Website, "website", "", "website URL")
	f.Float64Var(&addLocation.Latitude, "lat", 0, "latitude")
	f.Float64Var(&addLocation.Longitude, "lng", 0, "longitude")
	_ = locationsAddCmd.MarkFlagRequired("agency")

	locationsListCmd.Flags().StringVar(&listAgencyID, "agency", "", "filter by agency id")
	locationsListCmd.Flags().StringVar(&listStatus, "status", "", "filter by sync status")

	locationsImportCmd.Flags().StringVar(&importYAMLPath, "file", "", "path to YAML seed file (required)")
	_ = locationsImportCmd.MarkFlagRequired("file")

	locationsCmd.AddCommand(locationsAddCmd, locationsListCmd, locationsImportCmd)
	rootCmd.AddCommand(locationsCmd)
}
