package rewind

const Version = "0.1.0"
