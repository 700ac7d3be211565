// Copyright 2024 uhppoted@twyst.co.za. All rights reserved.
// Use of this source code is governed by an MIT-style license
// that can be found in the LICENSE file.

/*
Package eo-backup exports the mailing lists from an EmailOctopus account to Google Sheets.

eo-backup can be used from the command line but is really intended to be run from a cron job to keep
a rolling set of spreadsheet backups of every mailing list and contact.

eo-backup supports the following commands:

  - backup, to export all the mailing lists to a new EO-export-<yyyymmdd> spreadsheet
  - prune, to move backup spreadsheets older than the retention period to the Google Drive bin
  - get, to download a worksheet range from a backup spreadsheet as a TSV file
  - schedule, to run the backup and prune jobs on cron schedules
  - version, to display the current version
*/
package eobackup
