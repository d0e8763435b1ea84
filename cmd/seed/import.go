package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/config"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/drive"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/ingest"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/storage"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/pkg/logger"
)

func runImport(c *cli.Context) error {
	importer, done, err := openImporter(c)
	if err != nil {
		return err
	}
	defer done()

	sum, err := importer.ImportDir(c.Context, c.String("dir"), c.String("type"))
	printSummary(c.App.Writer, sum)
	return err
}

func runImportObjects(c *cli.Context) error {
	store, err := storage.NewMinioClient(config.Load().Storage)
	if err != nil {
		return err
	}

	importer, done, err := openImporter(c)
	if err != nil {
		return err
	}
	defer done()

	prefix, key := c.String("prefix"), c.String("key")
	var sum ingest.Summary
	if dir := c.String("download-dir"); dir != "" || key != "" {
		downloader, err := newObjectDownloader(store, dir)
		if err != nil {
			return err
		}
		paths, err := downloader.downloadObjects(c.Context, prefix, key)
		if err != nil {
			return err
		}
		sum, err = importer.ImportFiles(c.Context, paths, c.String("type"))
		printSummary(c.App.Writer, sum)
		return err
	}

	sum, err = importer.ImportObjects(c.Context, store, prefix, c.String("type"))
	printSummary(c.App.Writer, sum)
	return err
}

func runImportDrive(c *cli.Context) error {
	cfg := config.Load()
	svc, err := drive.NewService(c.Context, cfg.Drive.CredentialsJSON)
	if err != nil {
		return err
	}

	folderID := c.String("folder")
	if path := c.String("path"); path != "" {
		if folderID, err = svc.FindFolderByPath(c.Context, path); err != nil {
			return err
		}
	}

	paths, err := drive.NewDownloader(svc).DownloadFolder(c.Context, drive.DownloadOptions{
		FolderID:    folderID,
		DownloadDir: c.String("download-dir"),
	})
	if err != nil {
		return err
	}
	logger.Log.Info().Int("files", len(paths)).Str("folder", folderID).Msg("downloaded drive files")

	importer, done, err := openImporter(c)
	if err != nil {
		return err
	}
	defer done()

	sum, err := importer.ImportFiles(c.Context, paths, c.String("type"))
	printSummary(c.App.Writer, sum)
	return err
}
