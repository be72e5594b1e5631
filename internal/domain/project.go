package domain

import "time"

// DefaultProjectName marks projects that have not been titled yet.
const DefaultProjectName = "New Project"

type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Document  string    `json:"html"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WelcomeDocument is the page every new project starts from.
const WelcomeDocument = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Live Preview</title>
  <style>
    body {
      font-family: Arial, sans-serif;
      padding: 20px;
      background-color: #ffffff;
      color: #000000;
    }
    h1 {
      color: #4CAF50;
    }
  </style>
</head>
<body>
  <h1>Welcome!</h1>
  <p>Use voice commands to modify this page's style.</p>
</body>
</html>
`

// BlankDocument replaces the page when the user clears everything.
const BlankDocument = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Live Preview</title>
  <style>
    body {
      font-family: Arial, sans-serif;
      padding: 20px;
      background-color: #ffffff;
      color: #000000;
    }
  </style>
</head>
<body>
</body>
</html>
`
