// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkalabin/calib-keeper/models"
)

type saveFlags struct {
	localID     string
	certificate string
	equipment   string
	instrument  string
	fullScale   float64
	accuracy    float64
	temperature float64
	humidity    float64
	technician  string
	points      []string
	signature   string
	attachments []string
}

func newSaveCmd(root *rootFlags) *cobra.Command {
	flags := &saveFlags{}

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a calibration record locally and queue it for sync",
		Long: "save validates the certificate data, stores it in the local record\n" +
			"store, and schedules a sync run. The command succeeds even with the\n" +
			"server unreachable; delivery happens when connectivity returns.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd, root)
			if err != nil {
				return err
			}
			defer app.Close()

			record, err := buildRecord(flags)
			if err != nil {
				return err
			}

			if err = app.Records.Save(cmd.Context(), record); err != nil {
				return err
			}

			fmt.Println(headerStyle.Render("record saved"))
			fmt.Printf("  %s %s\n", labelStyle.Render("local id:"), record.LocalID)
			fmt.Printf("  %s %s\n", labelStyle.Render("certificate:"), record.Payload.CertificateNumber)
			fmt.Printf("  %s %s (%d/%d points failed)\n",
				labelStyle.Render("verdict:"), verdict(record.Summary.Overall),
				record.Summary.TestPointsFailed, record.Summary.TestPointsTotal)
			fmt.Printf("  %s %s\n", labelStyle.Render("status:"), pendingBadge)
			return nil
		},
	}

	cf := cmd.Flags()
	cf.StringVar(&flags.localID, "id", "", "local id to overwrite an existing record")
	cf.StringVar(&flags.certificate, "certificate", "", "certificate number (required)")
	cf.StringVar(&flags.equipment, "equipment", "", "equipment id under calibration (required)")
	cf.StringVar(&flags.instrument, "instrument", "", "instrument type")
	cf.Float64Var(&flags.fullScale, "full-scale", 0, "instrument full scale in engineering units")
	cf.Float64Var(&flags.accuracy, "accuracy", 0, "rated accuracy, percent of full scale")
	cf.Float64Var(&flags.temperature, "temperature", 0, "ambient temperature")
	cf.Float64Var(&flags.humidity, "humidity", 0, "relative humidity")
	cf.StringVar(&flags.technician, "technician", "", "technician name")
	cf.StringArrayVar(&flags.points, "point", nil,
		"test point as reference:measured[:rising|falling], repeatable")
	cf.StringVar(&flags.signature, "signature", "", "path to a signature image")
	cf.StringArrayVar(&flags.attachments, "attach", nil, "path to an attachment file, repeatable")

	return cmd
}

func buildRecord(flags *saveFlags) (*models.CalibrationRecord, error) {
	record := &models.CalibrationRecord{
		LocalID: flags.localID,
		Payload: models.CalibrationPayload{
			CertificateNumber: flags.certificate,
			EquipmentID:       flags.equipment,
			InstrumentType:    flags.instrument,
			FullScale:         flags.fullScale,
			AccuracyPercentFS: flags.accuracy,
			Temperature:       flags.temperature,
			Humidity:          flags.humidity,
			Technician:        flags.technician,
		},
	}

	for _, raw := range flags.points {
		point, err := parsePoint(raw)
		if err != nil {
			return nil, err
		}
		record.Payload.TestPoints = append(record.Payload.TestPoints, point)
	}

	if flags.signature != "" {
		att, err := loadAttachment(flags.signature)
		if err != nil {
			return nil, err
		}
		record.Signature = &att
	}
	for _, path := range flags.attachments {
		att, err := loadAttachment(path)
		if err != nil {
			return nil, err
		}
		record.Attachments = append(record.Attachments, att)
	}

	return record, nil
}

func parsePoint(raw string) (models.TestPoint, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return models.TestPoint{}, fmt.Errorf("malformed test point %q, want reference:measured[:direction]", raw)
	}

	reference, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return models.TestPoint{}, fmt.Errorf("test point %q: bad reference: %w", raw, err)
	}
	measured, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return models.TestPoint{}, fmt.Errorf("test point %q: bad measured value: %w", raw, err)
	}

	direction := models.DirectionRising
	if len(parts) == 3 {
		direction = parts[2]
	}

	return models.TestPoint{Reference: reference, Direction: direction, Measured: measured}, nil
}

func loadAttachment(path string) (models.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("read attachment: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return models.Attachment{
		Name: filepath.Base(path),
		MIME: mimeType,
		Data: data,
	}, nil
}
