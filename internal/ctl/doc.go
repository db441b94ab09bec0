// Package ctl implements canteenctl, the operator command line of the canteen
// service.
//
// Commands:
//   - import -f file.csv: load historical registrations from the legacy sheet.
//   - create-admin -n name: create or promote an admin account and set its
//     password, read twice from the terminal without echo.
//
// Both commands share the server configuration layers (JSON file, .env,
// environment, flags), so the same DATABASE_URL reaches the same database.
package ctl
